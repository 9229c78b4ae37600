package domain

// JobStatus — итог обработки job.
//
// Жизненный цикл:
//
//	RUNNING → SUCCEEDED
//	        ↘ STOPPED   (stop-ошибка или исчерпан retry)
//	        ↘ CANCELLED (worker отменён во время ожидания retry)
type JobStatus string

const (
	// JobStatusRunning — job ещё выполняется или ожидает retry.
	JobStatusRunning JobStatus = "RUNNING"

	// JobStatusSucceeded — task успешно завершился.
	JobStatusSucceeded JobStatus = "SUCCEEDED"

	// JobStatusStopped — job завершён терминальной ошибкой.
	JobStatusStopped JobStatus = "STOPPED"

	// JobStatusCancelled — job отменён до терминального состояния.
	JobStatusCancelled JobStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusStopped, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление статуса.
func (s JobStatus) String() string {
	return string(s)
}
