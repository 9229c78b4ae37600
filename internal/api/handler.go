package api

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/shaiso/Ponos/internal/domain"
)

// JobPublisher публикует job в очередь (mq.Publisher).
type JobPublisher interface {
	PublishJob(ctx context.Context, queue string, job any) (string, error)
}

// FailureReader читает отчёты об ошибках (repo.FailureRepo).
type FailureReader interface {
	ListRecent(ctx context.Context, queue string, limit int) ([]domain.Failure, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Failure, error)
}

// Handler — обработчик API с зависимостями.
type Handler struct {
	publisher JobPublisher
	failures  FailureReader
	queues    []string
	logger    *slog.Logger
}

// Config — конфигурация Handler.
type Config struct {
	Publisher JobPublisher

	// Failures — nil, если процесс работает без Postgres.
	Failures FailureReader

	// Queues — очереди, принимающие jobs через API.
	Queues []string

	Logger *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	queues := slices.Clone(cfg.Queues)
	slices.Sort(queues)

	return &Handler{
		publisher: cfg.Publisher,
		failures:  cfg.Failures,
		queues:    queues,
		logger:    logger.With("component", "api"),
	}
}

func (h *Handler) hasQueue(queue string) bool {
	_, found := slices.BinarySearch(h.queues, queue)
	return found
}
