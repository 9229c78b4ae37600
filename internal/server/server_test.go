package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/Ponos/internal/errcat"
	"github.com/shaiso/Ponos/internal/telemetry"
	"github.com/shaiso/Ponos/internal/worker"
)

// fakeDelivery записывает ack/nack вместо брокера.
type fakeDelivery struct {
	body []byte

	mu      sync.Mutex
	acked   bool
	nacked  bool
	requeue bool
}

func (d *fakeDelivery) Body() []byte      { return d.body }
func (d *fakeDelivery) MessageID() string { return "msg-1" }

func (d *fakeDelivery) Ack() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acked = true
	return nil
}

func (d *fakeDelivery) Nack(requeue bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nacked = true
	d.requeue = requeue
	return nil
}

func (d *fakeDelivery) outcome() (acked, nacked, requeue bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acked, d.nacked, d.requeue
}

func newTestServer() (*Server, *prometheus.Registry) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	s := New(Config{
		Logger:   logger,
		ErrorCat: errcat.NewLogReporter(logger),
		Monitor:  telemetry.NewPrometheusMonitor(reg),
		Env:      &worker.Env{},
	})
	return s, reg
}

func registrationFor(task worker.TaskFunc, opts TaskOptions) registration {
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Hour
	}
	return registration{queue: "billing.charge", task: task, opts: opts}
}

// --- RegisterTask Tests ---

func TestRegisterTask(t *testing.T) {
	s, _ := newTestServer()
	task := func(context.Context, any) (any, error) { return nil, nil }

	if err := s.RegisterTask("b.queue", task, TaskOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RegisterTask("a.queue", task, TaskOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.RegisterTask("a.queue", task, TaskOptions{}); !errors.Is(err, ErrDuplicateQueue) {
		t.Errorf("expected ErrDuplicateQueue, got %v", err)
	}
	if err := s.RegisterTask(" ", task, TaskOptions{}); !errors.Is(err, ErrInvalidTask) {
		t.Errorf("expected ErrInvalidTask for empty queue, got %v", err)
	}
	if err := s.RegisterTask("c.queue", nil, TaskOptions{}); !errors.Is(err, ErrInvalidTask) {
		t.Errorf("expected ErrInvalidTask for nil task, got %v", err)
	}

	queues := s.Queues()
	if len(queues) != 2 || queues[0] != "a.queue" || queues[1] != "b.queue" {
		t.Errorf("expected sorted queues, got %v", queues)
	}
}

func TestStart_NoTasks(t *testing.T) {
	s, _ := newTestServer()

	if err := s.Start(context.Background()); !errors.Is(err, ErrNoTasks) {
		t.Errorf("expected ErrNoTasks, got %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{})

	if s.prefetch != defaultPrefetch {
		t.Errorf("expected prefetch %d, got %d", defaultPrefetch, s.prefetch)
	}
	if s.logger == nil {
		t.Error("logger should default to slog.Default()")
	}
}

// --- handleDelivery Tests ---

func TestHandleDelivery_SuccessAcks(t *testing.T) {
	s, reg := newTestServer()

	var received any
	task := func(_ context.Context, job any) (any, error) {
		received = job
		return "ok", nil
	}

	d := &fakeDelivery{body: []byte(`{"amount": 10}`)}
	s.handleDelivery(context.Background(), registrationFor(task, TaskOptions{}), d)

	acked, nacked, _ := d.outcome()
	if !acked || nacked {
		t.Errorf("expected ack, got acked=%v nacked=%v", acked, nacked)
	}

	job, ok := received.(map[string]any)
	if !ok || job["amount"] != 10.0 {
		t.Errorf("task should receive decoded job, got %v", received)
	}

	got := testutil.ToFloat64(telemetry.NewPrometheusMonitor(reg).Counter("ponos.finish").WithLabelValues(
		"billing.charge", "charge", "billing.charge", "billing.charge", "success",
	))
	if got != 1 {
		t.Errorf("expected 1 success metric, got %v", got)
	}
}

func TestHandleDelivery_InvalidJSON(t *testing.T) {
	s, _ := newTestServer()

	var calls atomic.Int32
	task := func(context.Context, any) (any, error) {
		calls.Add(1)
		return nil, nil
	}

	d := &fakeDelivery{body: []byte(`{not json`)}
	s.handleDelivery(context.Background(), registrationFor(task, TaskOptions{}), d)

	acked, nacked, requeue := d.outcome()
	if acked || !nacked || requeue {
		t.Errorf("expected nack without requeue, got acked=%v nacked=%v requeue=%v", acked, nacked, requeue)
	}
	if calls.Load() != 0 {
		t.Error("task must not run for undecodable message")
	}
}

func TestHandleDelivery_NullJob(t *testing.T) {
	s, _ := newTestServer()
	task := func(context.Context, any) (any, error) { return nil, nil }

	d := &fakeDelivery{body: []byte(`null`)}
	s.handleDelivery(context.Background(), registrationFor(task, TaskOptions{}), d)

	_, nacked, requeue := d.outcome()
	if !nacked || requeue {
		t.Errorf("null job should be rejected without requeue, got nacked=%v requeue=%v", nacked, requeue)
	}
}

func TestHandleDelivery_StopDeadLetters(t *testing.T) {
	s, _ := newTestServer()
	task := func(context.Context, any) (any, error) {
		return nil, worker.Stop("card declined", nil)
	}

	d := &fakeDelivery{body: []byte(`{}`)}
	s.handleDelivery(context.Background(), registrationFor(task, TaskOptions{}), d)

	acked, nacked, requeue := d.outcome()
	if acked || !nacked || requeue {
		t.Errorf("expected nack without requeue, got acked=%v nacked=%v requeue=%v", acked, nacked, requeue)
	}
}

func TestHandleDelivery_SchemaViolationDeadLetters(t *testing.T) {
	s, _ := newTestServer()
	schema := worker.MustCompileJSONSchema("charge.json", `{"type": "object", "required": ["amount"]}`)

	var calls atomic.Int32
	task := func(context.Context, any) (any, error) {
		calls.Add(1)
		return nil, nil
	}

	d := &fakeDelivery{body: []byte(`{"currency": "EUR"}`)}
	s.handleDelivery(context.Background(), registrationFor(task, TaskOptions{JobSchema: schema}), d)

	_, nacked, requeue := d.outcome()
	if !nacked || requeue {
		t.Errorf("expected nack without requeue, got nacked=%v requeue=%v", nacked, requeue)
	}
	if calls.Load() != 0 {
		t.Error("task must not run for invalid job")
	}
}

func TestHandleDelivery_RetriesThenAcks(t *testing.T) {
	s, _ := newTestServer()

	var calls atomic.Int32
	task := func(context.Context, any) (any, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("temporary")
		}
		return "ok", nil
	}

	d := &fakeDelivery{body: []byte(`{}`)}
	opts := TaskOptions{RetryDelay: time.Millisecond, MaxRetryDelay: 5 * time.Millisecond, MaxNumRetries: 5}
	s.handleDelivery(context.Background(), registrationFor(task, opts), d)

	acked, _, _ := d.outcome()
	if !acked {
		t.Error("expected ack after successful retry")
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestHandleDelivery_RetriesExhaustedDeadLetters(t *testing.T) {
	s, _ := newTestServer()

	var finalCalls atomic.Int32
	task := func(context.Context, any) (any, error) {
		return nil, errors.New("still failing")
	}

	d := &fakeDelivery{body: []byte(`{}`)}
	opts := TaskOptions{
		RetryDelay:    time.Millisecond,
		MaxRetryDelay: time.Millisecond,
		MaxNumRetries: 2,
		FinalRetryFn: func(context.Context) error {
			finalCalls.Add(1)
			return nil
		},
	}
	s.handleDelivery(context.Background(), registrationFor(task, opts), d)

	_, nacked, requeue := d.outcome()
	if !nacked || requeue {
		t.Errorf("expected nack without requeue, got nacked=%v requeue=%v", nacked, requeue)
	}
	if finalCalls.Load() != 1 {
		t.Errorf("expected final retry handler once, got %d", finalCalls.Load())
	}
}

func TestHandleDelivery_CancelRequeues(t *testing.T) {
	s, _ := newTestServer()

	failed := make(chan struct{})
	var once sync.Once
	task := func(context.Context, any) (any, error) {
		once.Do(func() { close(failed) })
		return nil, errors.New("temporary")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-failed
		// retry запланирован через час; отмена должна вернуть сообщение в очередь
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	d := &fakeDelivery{body: []byte(`{}`)}
	done := make(chan struct{})
	go func() {
		s.handleDelivery(ctx, registrationFor(task, TaskOptions{}), d)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handleDelivery did not return after cancel")
	}

	acked, nacked, requeue := d.outcome()
	if acked || !nacked || !requeue {
		t.Errorf("expected nack with requeue, got acked=%v nacked=%v requeue=%v", acked, nacked, requeue)
	}
}
