package errcat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Reporter отправляет ошибку во внешнюю систему учёта ошибок.
type Reporter interface {
	Report(ctx context.Context, err error) error
}

// dataCarrier — ошибка с прикреплённым контекстом (worker.Error).
type dataCarrier interface {
	ContextData() map[string]any
}

// kindCarrier — ошибка с видом (worker.Error).
type kindCarrier interface {
	KindName() string
}

// ContextData извлекает контекст ошибки, если он есть.
func ContextData(err error) map[string]any {
	var dc dataCarrier
	if errors.As(err, &dc) {
		return dc.ContextData()
	}
	return nil
}

// KindName возвращает вид ошибки или "generic".
func KindName(err error) string {
	var kc kindCarrier
	if errors.As(err, &kc) {
		return kc.KindName()
	}
	return "generic"
}

// LogReporter пишет ошибки в slog.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter создаёт LogReporter. nil logger — slog.Default().
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

// Report реализует Reporter.
func (r *LogReporter) Report(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	attrs := []any{"error", err, "kind", KindName(err)}
	if data := ContextData(err); data != nil {
		if queue, ok := data["queue"]; ok {
			attrs = append(attrs, "queue", queue)
		}
		attrs = append(attrs, "data", data)
	}

	r.logger.ErrorContext(ctx, "job error reported", attrs...)
	return nil
}

var (
	defaultMu       sync.RWMutex
	defaultReporter Reporter
)

// Default возвращает Reporter процесса.
// Пока SetDefault не вызван — LogReporter поверх slog.Default().
func Default() Reporter {
	defaultMu.RLock()
	r := defaultReporter
	defaultMu.RUnlock()

	if r != nil {
		return r
	}
	return NewLogReporter(nil)
}

// SetDefault заменяет Reporter процесса.
func SetDefault(r Reporter) {
	defaultMu.Lock()
	defaultReporter = r
	defaultMu.Unlock()
}

// multi рассылает ошибку всем Reporter.
type multi []Reporter

// Multi объединяет несколько Reporter. Ошибки отдельных Reporter объединяются через errors.Join.
func Multi(reporters ...Reporter) Reporter {
	return multi(reporters)
}

func (m multi) Report(ctx context.Context, err error) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if rerr := r.Report(ctx, err); rerr != nil {
			errs = append(errs, rerr)
		}
	}
	return errors.Join(errs...)
}
