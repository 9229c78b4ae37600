package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Ponos/internal/telemetry"
)

// validateJob проверяет job по JobSchema. Ошибка — stop: невалидный job не ретраится.
func (w *Worker) validateJob() error {
	if w.jobSchema == nil {
		return nil
	}
	if err := w.jobSchema.Validate(w.job); err != nil {
		return Stop(msgInvalidJob, err)
	}
	return nil
}

type taskResult struct {
	value any
	err   error
}

// wrapTask вызывает task с job, при Timeout > 0 — наперегонки с таймером.
//
// Если таймер сработал первым, возвращается ошибка KindTimeout, а результат
// task игнорируется. ctx task отменяется, но task, не смотрящий на ctx,
// продолжает работать в фоне.
func (w *Worker) wrapTask(ctx context.Context) (any, error) {
	ctx = telemetry.WithLogger(ctx, w.logger)

	if w.timeout <= 0 {
		return w.callTask(ctx)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Буфер 1: горутина task не зависнет, если результат уже никому не нужен.
	resultCh := make(chan taskResult, 1)
	go func() {
		value, err := w.callTask(taskCtx)
		resultCh <- taskResult{value: value, err: err}
	}()

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		return res.value, res.err
	case <-timer.C:
		return nil, &Error{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("%s after %s", msgTimeout, w.timeout),
			Data:    map[string]any{"timeout_ms": w.timeout.Milliseconds()},
		}
	}
}

// callTask вызывает task, превращая panic в ошибку.
func (w *Worker) callTask(ctx context.Context) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return w.task(ctx, w.job)
}
