package worker

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Переменные окружения, влияющие на Worker.
const (
	EnvTimeout         = "WORKER_TIMEOUT"
	EnvMonitorDisabled = "WORKER_MONITOR_DISABLED"
	EnvMaxNumRetries   = "WORKER_MAX_NUM_RETRIES"
	EnvMaxRetryDelay   = "WORKER_MAX_RETRY_DELAY"
)

// Env — значения из окружения, прочитанные один раз.
//
// Worker никогда не читает окружение во время Run(): всё резолвится в New().
type Env struct {
	// Timeout — WORKER_TIMEOUT в миллисекундах. nil, если не задан.
	Timeout *time.Duration

	// MonitorDisabled — WORKER_MONITOR_DISABLED.
	MonitorDisabled bool

	// MaxNumRetries — WORKER_MAX_NUM_RETRIES (0 — не задан).
	MaxNumRetries int

	// MaxRetryDelay — WORKER_MAX_RETRY_DELAY в миллисекундах (0 — не задан).
	MaxRetryDelay time.Duration

	// timeoutErr — WORKER_TIMEOUT задан, но некорректен.
	timeoutErr error
}

// LoadEnv читает переменные окружения Worker.
func LoadEnv() Env {
	return parseEnv(os.Getenv)
}

// Err возвращает ошибку разбора WORKER_TIMEOUT (её же вернёт New()).
func (e Env) Err() error {
	return e.timeoutErr
}

func parseEnv(getenv func(string) string) Env {
	var env Env

	if raw := strings.TrimSpace(getenv(EnvTimeout)); raw != "" {
		ms, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			env.timeoutErr = fmt.Errorf("%s=%q is not an integer", EnvTimeout, raw)
		case ms < 0:
			env.timeoutErr = fmt.Errorf("%s=%q must be non-negative", EnvTimeout, raw)
		default:
			d := time.Duration(ms) * time.Millisecond
			env.Timeout = &d
		}
	}

	env.MonitorDisabled = truthy(getenv(EnvMonitorDisabled))

	if n, err := strconv.Atoi(strings.TrimSpace(getenv(EnvMaxNumRetries))); err == nil && n > 0 {
		env.MaxNumRetries = n
	}

	if ms, err := strconv.Atoi(strings.TrimSpace(getenv(EnvMaxRetryDelay))); err == nil && ms > 0 {
		env.MaxRetryDelay = time.Duration(ms) * time.Millisecond
	}

	return env
}

// truthy: пустая строка, "0" и "false" — ложь, остальное — истина.
func truthy(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}
