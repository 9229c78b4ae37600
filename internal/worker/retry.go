package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Ponos/internal/domain"
)

// enforceRetryLimit решает, будет ли retry.
//
// attempt < MaxNumRetries — возвращает err без изменений (retry).
// Иначе вызывает FinalRetryFn (если задан) и всегда возвращает stop-ошибку
// "final retry handler finished": итог FinalRetryFn на это не влияет.
func (w *Worker) enforceRetryLimit(ctx context.Context, err error) error {
	if w.Attempt() < w.maxNumRetries {
		return err
	}

	if w.finalRetryFn != nil {
		if fnErr := w.callFinalRetryFn(ctx); fnErr != nil {
			w.logger.Warn("final retry handler failed", "error", fnErr)
			w.incMonitor(eventFinishRetryFnError, map[string]string{"result": resultRetryFnError})
		}
	}

	w.incMonitor(eventFinishError, map[string]string{"result": resultRetryError})
	return Stop(msgFinalRetry, err)
}

// callFinalRetryFn вызывает FinalRetryFn; panic считается ошибкой.
func (w *Worker) callFinalRetryFn(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("final retry handler panicked: %v", r)
		}
	}()
	return w.finalRetryFn(ctx)
}

// retryWithDelay планирует следующий Run() через retryDelay
// и удваивает задержку, не превышая MaxRetryDelay.
func (w *Worker) retryWithDelay(ctx context.Context) {
	w.incMonitor(eventFinish, map[string]string{"result": resultTaskError})

	w.mu.Lock()
	if w.cancelled {
		w.mu.Unlock()
		w.settle(domain.JobStatusCancelled)
		return
	}

	delay := w.retryDelay
	w.retryTimer = time.AfterFunc(delay, func() {
		w.runScheduled(ctx)
	})
	w.retryDelay = min(delay*2, w.maxRetryDelay)
	attempt := w.attempt
	w.mu.Unlock()

	w.logger.Info("retrying job", "attempt", attempt, "delay", delay)
}

// runScheduled — колбэк таймера retry.
func (w *Worker) runScheduled(ctx context.Context) {
	w.mu.Lock()
	w.retryTimer = nil
	if w.cancelled || ctx.Err() != nil {
		w.mu.Unlock()
		w.settle(domain.JobStatusCancelled)
		return
	}
	// Попытка учитывается под тем же lock, что и проверка cancelled.
	w.running++
	w.mu.Unlock()

	w.run(ctx)
}
