package worker

import (
	"maps"

	"github.com/shaiso/Ponos/internal/telemetry"
)

// Имена событий метрик.
const (
	eventTimer              = "ponos.timer"
	eventFinish             = "ponos.finish"
	eventFinishError        = "ponos.finish-error"
	eventFinishRetryFnError = "ponos.finish-retry-fn-error"
)

// Значения тега result.
const (
	resultSuccess      = "success"
	resultFatalError   = "fatal-error"
	resultTimeoutError = "timeout-error"
	resultTaskError    = "task-error"
	resultRetryError   = "retry-error"
	resultRetryFnError = "retry-fn-error"
)

// incMonitor увеличивает счётчик события. extra перекрывает теги очереди.
func (w *Worker) incMonitor(event string, extra map[string]string) {
	if w.monitorOff {
		return
	}

	tags := w.eventTags()
	maps.Copy(tags, extra)
	w.monitor.Increment(event, tags)
}

// createTimer запускает таймер. При отключённом мониторинге возвращает nil.
func (w *Worker) createTimer(event string) telemetry.TimerHandle {
	if w.monitorOff {
		return nil
	}
	if event == "" {
		event = eventTimer
	}
	return w.monitor.Timer(event, true, w.eventTags())
}
