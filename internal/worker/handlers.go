package worker

// handleWorkerStopError учитывает stop-ошибку и возвращает её дальше.
func (w *Worker) handleWorkerStopError(err *Error) *Error {
	w.incMonitor(eventFinishError, map[string]string{"result": resultFatalError})
	return err
}

// handleTimeoutError учитывает таймаут и возвращает ошибку дальше.
func (w *Worker) handleTimeoutError(err *Error) *Error {
	w.incMonitor(eventFinishError, map[string]string{"result": resultTimeoutError})
	return err
}

// handleTaskSuccess учитывает успешное выполнение.
func (w *Worker) handleTaskSuccess() {
	w.incMonitor(eventFinish, map[string]string{"result": resultSuccess})
}
