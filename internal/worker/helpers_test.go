package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Ponos/internal/telemetry"
)

// --- Test doubles ---

type monitorCall struct {
	event string
	tags  map[string]string
}

// recordingMonitor записывает все вызовы клиента метрик.
type recordingMonitor struct {
	mu         sync.Mutex
	increments []monitorCall
	timers     []monitorCall
	stops      int
}

func (m *recordingMonitor) Increment(event string, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.increments = append(m.increments, monitorCall{event: event, tags: tags})
}

func (m *recordingMonitor) Timer(event string, _ bool, tags map[string]string) telemetry.TimerHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timers = append(m.timers, monitorCall{event: event, tags: tags})
	return &recordingTimer{m: m}
}

// count возвращает количество increment с данным событием и result.
func (m *recordingMonitor) count(event, result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.increments {
		if c.event == event && c.tags["result"] == result {
			n++
		}
	}
	return n
}

func (m *recordingMonitor) totalIncrements() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.increments)
}

func (m *recordingMonitor) timerStarts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *recordingMonitor) timerStops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

type recordingTimer struct {
	m *recordingMonitor
}

func (t *recordingTimer) Stop() {
	t.m.mu.Lock()
	t.m.stops++
	t.m.mu.Unlock()
}

// recordingReporter записывает отправленные ошибки.
type recordingReporter struct {
	mu     sync.Mutex
	errors []error
}

func (r *recordingReporter) Report(_ context.Context, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
	return nil
}

func (r *recordingReporter) reported() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errors...)
}

// testHarness собирает Worker с записывающими зависимостями.
type testHarness struct {
	worker   *Worker
	monitor  *recordingMonitor
	reporter *recordingReporter
	done     atomic.Int32
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func successTask(_ context.Context, _ any) (any, error) {
	return "ok", nil
}

// newHarness создаёт Worker. modify может переопределить любое поле Config.
func newHarness(t *testing.T, modify func(cfg *Config)) *testHarness {
	t.Helper()

	h := &testHarness{
		monitor:  &recordingMonitor{},
		reporter: &recordingReporter{},
	}

	cfg := Config{
		Queue:    "do.something.command",
		Task:     successTask,
		Job:      map[string]any{"foo": "bar"},
		Logger:   discardLogger(),
		Done:     func() { h.done.Add(1) },
		Monitor:  h.monitor,
		ErrorCat: h.reporter,
		Env:      &Env{},
		// retry не должен срабатывать в тестах сам по себе
		RetryDelay:    time.Hour,
		MaxRetryDelay: time.Hour,
	}
	if modify != nil {
		modify(&cfg)
	}

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(w.Cancel)

	h.worker = w
	return h
}

// waitFinished ждёт терминального состояния job.
func waitFinished(t *testing.T, w *Worker) {
	t.Helper()
	select {
	case <-w.Finished():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not finish")
	}
}
