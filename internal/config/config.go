// Package config собирает конфигурацию процесса ponos-worker из окружения.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shaiso/Ponos/internal/mq"
	"github.com/shaiso/Ponos/internal/worker"
)

// Значения по умолчанию.
const (
	DefaultPort     = "8082"
	DefaultPrefetch = 5
)

// Config — конфигурация процесса.
type Config struct {
	// RabbitMQURL — RABBITMQ_URL (default: mq.DefaultURL()).
	RabbitMQURL string

	// DBURL — DB_URL. Пустая строка — отчёты об ошибках только в лог.
	DBURL string

	// Port — WORKER_PORT для /healthz и /metrics.
	Port string

	// Prefetch — WORKER_PREFETCH: одновременно обрабатываемых сообщений на очередь.
	Prefetch int

	// SchedulesFile — PONOS_SCHEDULES_FILE: расписания периодических jobs (пусто — без расписаний).
	SchedulesFile string

	// Worker — WORKER_TIMEOUT, WORKER_MONITOR_DISABLED и лимиты retry.
	Worker worker.Env
}

// Load читает конфигурацию из окружения.
func Load() (*Config, error) {
	cfg := &Config{
		RabbitMQURL:   getenv("RABBITMQ_URL", mq.DefaultURL()),
		DBURL:         strings.TrimSpace(os.Getenv("DB_URL")),
		Port:          getenv("WORKER_PORT", DefaultPort),
		Prefetch:      DefaultPrefetch,
		SchedulesFile: strings.TrimSpace(os.Getenv("PONOS_SCHEDULES_FILE")),
		Worker:        worker.LoadEnv(),
	}

	if raw := strings.TrimSpace(os.Getenv("WORKER_PREFETCH")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("WORKER_PREFETCH=%q must be a positive integer", raw)
		}
		cfg.Prefetch = n
	}

	if err := cfg.Worker.Err(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Addr возвращает адрес HTTP-сервера.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getenv(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}
