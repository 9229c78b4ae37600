package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/Ponos/internal/domain"
)

// --- New Tests ---

func validConfig() Config {
	return Config{
		Queue:  "some.queue.name",
		Task:   successTask,
		Job:    map[string]any{"foo": "bar"},
		Logger: discardLogger(),
		Done:   func() {},
		Env:    &Env{},
	}
}

func TestNew_RequiredFields(t *testing.T) {
	tests := []struct {
		field  string
		modify func(cfg *Config)
	}{
		{"queue", func(cfg *Config) { cfg.Queue = "" }},
		{"task", func(cfg *Config) { cfg.Task = nil }},
		{"job", func(cfg *Config) { cfg.Job = nil }},
		{"log", func(cfg *Config) { cfg.Logger = nil }},
		{"done", func(cfg *Config) { cfg.Done = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			_, err := New(cfg)
			if err == nil {
				t.Fatalf("expected error for missing %s", tt.field)
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if ve.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, ve.Field)
			}
			if KindOf(err) != KindConfiguration {
				t.Errorf("expected configuration kind, got %s", KindOf(err))
			}
		})
	}
}

func TestNew_InvalidJobSchema(t *testing.T) {
	for name, schema := range map[string]JobSchema{
		"typed nil":    (*JSONSchema)(nil),
		"not compiled": &JSONSchema{},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			cfg.JobSchema = schema

			_, err := New(cfg)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != "jobSchema" {
				t.Errorf("expected field jobSchema, got %q", ve.Field)
			}
		})
	}
}

func TestNew_ValidJobSchema(t *testing.T) {
	cfg := validConfig()
	cfg.JobSchema = MustCompileJSONSchema("job.json", `{"type": "object"}`)

	if _, err := New(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_DefaultTimeout(t *testing.T) {
	w, err := New(validConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Timeout() != 0 {
		t.Errorf("expected no timeout by default, got %s", w.Timeout())
	}
}

func TestNew_EnvTimeout(t *testing.T) {
	t.Setenv(EnvTimeout, "4000")

	cfg := validConfig()
	cfg.Env = nil // читаем окружение

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Timeout() != 4000*time.Millisecond {
		t.Errorf("expected 4000ms, got %s", w.Timeout())
	}
}

func TestNew_ExplicitTimeoutWinsOverEnv(t *testing.T) {
	env := parseEnv(func(key string) string {
		if key == EnvTimeout {
			return "4000"
		}
		return ""
	})

	cfg := validConfig()
	cfg.Env = &env
	cfg.Timeout = TimeoutMs(0)

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Timeout() != 0 {
		t.Errorf("explicit timeout should win, got %s", w.Timeout())
	}
}

func TestNew_NegativeTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Timeout = TimeoutMs(-1)

	_, err := New(cfg)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "msTimeout" {
		t.Fatalf("expected msTimeout validation error, got %v", err)
	}
}

func TestNew_NonNumericEnvTimeout(t *testing.T) {
	for _, raw := range []string{"soon", "-5", "1.5"} {
		env := parseEnv(func(key string) string {
			if key == EnvTimeout {
				return raw
			}
			return ""
		})

		cfg := validConfig()
		cfg.Env = &env

		_, err := New(cfg)
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != "msTimeout" {
			t.Errorf("WORKER_TIMEOUT=%q: expected msTimeout validation error, got %v", raw, err)
		}
	}
}

func TestNew_RetryDefaults(t *testing.T) {
	w, err := New(validConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.maxNumRetries != DefaultMaxNumRetries {
		t.Errorf("expected maxNumRetries=%d, got %d", DefaultMaxNumRetries, w.maxNumRetries)
	}
	if w.maxRetryDelay != DefaultMaxRetryDelay {
		t.Errorf("expected maxRetryDelay=%s, got %s", DefaultMaxRetryDelay, w.maxRetryDelay)
	}
	if w.RetryDelay() != DefaultRetryDelay {
		t.Errorf("expected retryDelay=%s, got %s", DefaultRetryDelay, w.RetryDelay())
	}
}

func TestNew_RetryFromEnv(t *testing.T) {
	env := parseEnv(func(key string) string {
		switch key {
		case EnvMaxNumRetries:
			return "3"
		case EnvMaxRetryDelay:
			return "500"
		}
		return ""
	})

	cfg := validConfig()
	cfg.Env = &env

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.maxNumRetries != 3 {
		t.Errorf("expected maxNumRetries=3, got %d", w.maxNumRetries)
	}
	if w.maxRetryDelay != 500*time.Millisecond {
		t.Errorf("expected maxRetryDelay=500ms, got %s", w.maxRetryDelay)
	}
	// начальная задержка не больше потолка
	if w.RetryDelay() != 500*time.Millisecond {
		t.Errorf("expected retryDelay clamped to 500ms, got %s", w.RetryDelay())
	}
}

func TestParseEnv_MonitorDisabled(t *testing.T) {
	tests := map[string]bool{
		"":      false,
		"false": false,
		"0":     false,
		"true":  true,
		"1":     true,
		"yes":   true,
	}

	for raw, want := range tests {
		env := parseEnv(func(key string) string {
			if key == EnvMonitorDisabled {
				return raw
			}
			return ""
		})
		if env.MonitorDisabled != want {
			t.Errorf("%s=%q: expected %v, got %v", EnvMonitorDisabled, raw, want, env.MonitorDisabled)
		}
	}
}

// --- Cancel Tests ---

func TestCancel_BeforeRun(t *testing.T) {
	h := newHarness(t, nil)

	h.worker.Cancel()
	waitFinished(t, h.worker)

	if h.worker.Status() != domain.JobStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", h.worker.Status())
	}
}

func TestCancel_ContextCancelStopsPendingRetry(t *testing.T) {
	var calls int
	h := newHarness(t, func(cfg *Config) {
		cfg.Task = func(context.Context, any) (any, error) {
			calls++
			return nil, errors.New("boom")
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.worker.Run(ctx)

	cancel()
	waitFinished(t, h.worker)

	if h.worker.Status() != domain.JobStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", h.worker.Status())
	}
	if calls != 1 {
		t.Errorf("expected 1 task call, got %d", calls)
	}
}
