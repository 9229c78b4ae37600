package worker

import (
	"context"
	"log/slog"
	"maps"

	"github.com/shaiso/Ponos/internal/domain"
)

// Run выполняет одну попытку job.
//
//  1. Запускает таймер ponos.timer.
//  2. Проверяет job по схеме и выполняет task под таймаутом.
//  3. Успех — ponos.finish{success}, job завершён.
//  4. Ошибка — обогащение контекстом и классификация:
//     - stop: ponos.finish-error{fatal-error}, репорт, job завершён;
//     - timeout: ponos.finish-error{timeout-error}, репорт, проверка лимита retry;
//     - остальные: репорт, проверка лимита retry.
//     Исчерпанный лимит превращается в stop, иначе планируется retry.
//
// На любом пути таймер останавливается и Done вызывается ровно один раз.
// Finished() закрывается только после Done последней попытки.
func (w *Worker) Run(ctx context.Context) {
	w.mu.Lock()
	w.running++
	w.mu.Unlock()

	w.run(ctx)
}

// run — тело попытки. Вызывающий уже учёл её в running.
func (w *Worker) run(ctx context.Context) {
	w.watchContext(ctx)

	w.mu.Lock()
	w.attempt++
	attempt := w.attempt
	w.mu.Unlock()

	logger := w.logger.With("attempt", attempt)
	timer := w.createTimer(eventTimer)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		w.done()
		w.endAttempt()
	}()

	logger.Debug("job started")

	err := w.validateJob()
	if err == nil {
		_, err = w.wrapTask(ctx)
	}

	if err == nil {
		w.handleTaskSuccess()
		logger.Info("job succeeded")
		w.settle(domain.JobStatusSucceeded)
		return
	}

	w.handleError(ctx, logger, err)
}

// handleError — ветка ошибок Run().
func (w *Worker) handleError(ctx context.Context, logger *slog.Logger, err error) {
	e := w.addDataToError(err)

	switch e.Kind {
	case KindStop:
		w.stop(ctx, logger, e)
		return
	case KindTimeout:
		w.handleTimeoutError(e)
	}

	logger.Warn("job failed", "error", e, "kind", e.Kind.String())
	w.report(ctx, logger, e)

	next := w.enforceRetryLimit(ctx, e)
	if IsStop(next) {
		stopErr := w.addDataToError(next)
		maps.Copy(stopErr.Data, e.Data)
		w.stop(ctx, logger, stopErr)
		return
	}

	w.retryWithDelay(ctx)
}

// stop — терминальная обработка stop-ошибки.
func (w *Worker) stop(ctx context.Context, logger *slog.Logger, e *Error) {
	w.handleWorkerStopError(e)
	logger.Warn("job stopped", "error", e)
	w.report(ctx, logger, e)
	w.settle(domain.JobStatusStopped)
}

// report отправляет ошибку в ErrorCat. Сбой репортинга только логируется.
func (w *Worker) report(ctx context.Context, logger *slog.Logger, e *Error) {
	if err := w.errorCat.Report(ctx, e); err != nil {
		logger.Error("failed to report job error", "error", err)
	}
}
