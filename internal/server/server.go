package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shaiso/Ponos/internal/errcat"
	"github.com/shaiso/Ponos/internal/mq"
	"github.com/shaiso/Ponos/internal/telemetry"
	"github.com/shaiso/Ponos/internal/worker"
)

const defaultPrefetch = 5

// TaskOptions — настройки Worker для всех jobs очереди.
type TaskOptions struct {
	JobSchema     worker.JobSchema
	Timeout       *time.Duration
	MaxNumRetries int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	FinalRetryFn  worker.FinalRetryFunc
}

// Config — конфигурация Server.
type Config struct {
	// Conn — соединение с RabbitMQ (обязательно для Start).
	Conn *mq.Connection

	// Logger (если nil — slog.Default()).
	Logger *slog.Logger

	// Prefetch — сообщений в работе на очередь (default: 5).
	Prefetch int

	// ErrorCat и Monitor передаются каждому Worker (nil — дефолты процесса).
	ErrorCat errcat.Reporter
	Monitor  telemetry.Monitor

	// Env — окружение Worker, прочитанное один раз при старте (nil — каждый Worker читает сам).
	Env *worker.Env
}

type registration struct {
	queue string
	task  worker.TaskFunc
	opts  TaskOptions
}

// Server потребляет очереди и выполняет jobs через worker.Worker.
type Server struct {
	conn     *mq.Connection
	logger   *slog.Logger
	prefetch int
	errorCat errcat.Reporter
	monitor  telemetry.Monitor
	env      *worker.Env

	mu        sync.Mutex
	tasks     map[string]registration
	consumers []*mq.Consumer
	started   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New создаёт Server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	return &Server{
		conn:     cfg.Conn,
		logger:   logger,
		prefetch: prefetch,
		errorCat: cfg.ErrorCat,
		monitor:  cfg.Monitor,
		env:      cfg.Env,
		tasks:    make(map[string]registration),
	}
}

// RegisterTask регистрирует task на очереди. Вызывается до Start().
func (s *Server) RegisterTask(queue string, task worker.TaskFunc, opts TaskOptions) error {
	queue = strings.TrimSpace(queue)
	if queue == "" || task == nil {
		return fmt.Errorf("%w: queue %q", ErrInvalidTask, queue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if _, ok := s.tasks[queue]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateQueue, queue)
	}

	s.tasks[queue] = registration{queue: queue, task: task, opts: opts}
	return nil
}

// Queues возвращает зарегистрированные очереди в алфавитном порядке.
func (s *Server) Queues() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	queues := make([]string, 0, len(s.tasks))
	for q := range s.tasks {
		queues = append(queues, q)
	}
	slices.Sort(queues)
	return queues
}

// Start объявляет очереди и запускает по Consumer на каждую.
func (s *Server) Start(ctx context.Context) error {
	queues := s.Queues()
	if len(queues) == 0 {
		return ErrNoTasks
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	for _, q := range queues {
		if err := mq.DeclareTaskQueue(ctx, s.conn, q); err != nil {
			return fmt.Errorf("declare topology: %w", err)
		}
	}
	s.logger.Info("topology declared", "topology", mq.TopologyInfo(queues))

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true

	for _, q := range queues {
		reg := s.tasks[q]
		consumer := mq.NewConsumer(s.conn, s.logger, mq.ConsumerConfig{
			Queue:    q,
			Prefetch: s.prefetch,
			Handler: func(ctx context.Context, d *mq.Delivery) {
				s.handleDelivery(ctx, reg, d)
			},
		})
		s.consumers = append(s.consumers, consumer)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("consumer error", "queue", q, "error", err)
			}
		}()
	}

	s.logger.Info("server started", "queues", queues, "prefetch", s.prefetch)
	return nil
}

// Stop прекращает приём сообщений, отменяет запланированные retry
// и ждёт обработки сообщений, которые уже в работе.
func (s *Server) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	consumers := s.consumers
	s.mu.Unlock()

	s.logger.Info("stopping server...")

	if cancel != nil {
		cancel()
	}
	for _, c := range consumers {
		c.Stop()
	}
	s.wg.Wait()

	s.logger.Info("server stopped")
}
