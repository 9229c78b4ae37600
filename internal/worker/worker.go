package worker

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/shaiso/Ponos/internal/domain"
	"github.com/shaiso/Ponos/internal/errcat"
	"github.com/shaiso/Ponos/internal/telemetry"
)

// Default configuration values.
const (
	DefaultMaxNumRetries = 10
	DefaultRetryDelay    = time.Second
	DefaultMaxRetryDelay = 30 * time.Second
)

// TaskFunc — пользовательская функция, выполняющая job.
//
// ctx отменяется по таймауту Worker. Task, который не смотрит на ctx,
// продолжит работать в фоне после таймаута.
type TaskFunc func(ctx context.Context, job any) (any, error)

// FinalRetryFunc вызывается один раз, когда retry исчерпаны.
type FinalRetryFunc func(ctx context.Context) error

// JobSchema проверяет payload job перед выполнением task.
type JobSchema interface {
	Validate(job any) error
}

// Config — конфигурация Worker.
type Config struct {
	// Queue — имя очереди (обязательно). Используется в тегах метрик.
	Queue string

	// Task — функция, выполняющая job (обязательно).
	Task TaskFunc

	// Job — payload сообщения (обязательно).
	Job any

	// JobSchema — схема для проверки Job (опционально).
	JobSchema JobSchema

	// Logger (обязательно).
	Logger *slog.Logger

	// Done вызывается ровно один раз на каждый Run() (обязательно).
	Done func()

	// Timeout — таймаут task. nil — из WORKER_TIMEOUT, иначе без таймаута.
	// 0 — без таймаута.
	Timeout *time.Duration

	// ErrorCat — клиент репортинга ошибок (если nil — errcat.Default()).
	ErrorCat errcat.Reporter

	// Monitor — клиент метрик (если nil — telemetry.DefaultMonitor()).
	Monitor telemetry.Monitor

	// Retry
	MaxNumRetries int            // потолок попыток (default: WORKER_MAX_NUM_RETRIES или 10)
	RetryDelay    time.Duration  // начальная задержка retry (default: 1s)
	MaxRetryDelay time.Duration  // потолок задержки (default: WORKER_MAX_RETRY_DELAY или 30s)
	FinalRetryFn  FinalRetryFunc // вызывается при исчерпании retry (опционально)

	// Env — значения окружения (если nil — LoadEnv()).
	Env *Env
}

// TimeoutMs возвращает указатель на таймаут в миллисекундах для Config.Timeout.
func TimeoutMs(ms int) *time.Duration {
	d := time.Duration(ms) * time.Millisecond
	return &d
}

// Worker выполняет один job: task под таймаутом, классификация результата,
// retry с exponential backoff и терминальная обработка.
//
// Worker создаётся на каждое сообщение и переиспользуется для его retry.
// Run() — одна попытка; следующая планируется через time.AfterFunc.
// Finished() закрывается, когда job достиг терминального состояния.
type Worker struct {
	queue         string
	task          TaskFunc
	job           any
	jobSchema     JobSchema
	logger        *slog.Logger
	done          func()
	timeout       time.Duration
	errorCat      errcat.Reporter
	monitor       telemetry.Monitor
	monitorOff    bool
	maxNumRetries int
	maxRetryDelay time.Duration
	finalRetryFn  FinalRetryFunc
	tags          map[string]string

	// Состояние попыток.
	mu         sync.Mutex
	attempt    int
	retryDelay time.Duration
	retryTimer *time.Timer
	running    int
	cancelled  bool
	settled    domain.JobStatus // терминальный статус, ждущий конца попыток
	status     domain.JobStatus
	stopWatch  func() bool

	finished   chan struct{}
	finishOnce sync.Once
}

// New проверяет конфигурацию и создаёт Worker.
//
// Ошибка конфигурации — *ValidationError с именем поля.
func New(cfg Config) (*Worker, error) {
	env := cfg.Env
	if env == nil {
		loaded := LoadEnv()
		env = &loaded
	}

	timeout, err := validateConfig(cfg, env)
	if err != nil {
		return nil, err
	}

	errorCat := cfg.ErrorCat
	if errorCat == nil {
		errorCat = errcat.Default()
	}

	var monitor telemetry.Monitor = telemetry.DefaultMonitor()
	if cfg.Monitor != nil {
		monitor = cfg.Monitor
	}

	maxNumRetries := cfg.MaxNumRetries
	if maxNumRetries <= 0 {
		maxNumRetries = env.MaxNumRetries
	}
	if maxNumRetries <= 0 {
		maxNumRetries = DefaultMaxNumRetries
	}

	maxRetryDelay := cfg.MaxRetryDelay
	if maxRetryDelay <= 0 {
		maxRetryDelay = env.MaxRetryDelay
	}
	if maxRetryDelay <= 0 {
		maxRetryDelay = DefaultMaxRetryDelay
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	retryDelay = min(retryDelay, maxRetryDelay)

	return &Worker{
		queue:         cfg.Queue,
		task:          cfg.Task,
		job:           cfg.Job,
		jobSchema:     cfg.JobSchema,
		logger:        telemetry.WithQueue(cfg.Logger, cfg.Queue),
		done:          cfg.Done,
		timeout:       timeout,
		errorCat:      errorCat,
		monitor:       monitor,
		monitorOff:    env.MonitorDisabled,
		maxNumRetries: maxNumRetries,
		maxRetryDelay: maxRetryDelay,
		finalRetryFn:  cfg.FinalRetryFn,
		tags:          deriveTags(cfg.Queue),
		retryDelay:    retryDelay,
		status:        domain.JobStatusRunning,
		finished:      make(chan struct{}),
	}, nil
}

// validateConfig проверяет обязательные поля и возвращает итоговый таймаут.
func validateConfig(cfg Config, env *Env) (time.Duration, error) {
	switch {
	case strings.TrimSpace(cfg.Queue) == "":
		return 0, &ValidationError{Field: "queue", Reason: "is required"}
	case cfg.Task == nil:
		return 0, &ValidationError{Field: "task", Reason: "is required"}
	case cfg.Job == nil:
		return 0, &ValidationError{Field: "job", Reason: "is required"}
	case cfg.Logger == nil:
		return 0, &ValidationError{Field: "log", Reason: "is required"}
	case cfg.Done == nil:
		return 0, &ValidationError{Field: "done", Reason: "is required"}
	}

	if cfg.JobSchema != nil && !isSchemaObject(cfg.JobSchema) {
		return 0, &ValidationError{Field: "jobSchema", Reason: "must be a compiled schema object"}
	}

	if cfg.Timeout != nil {
		if *cfg.Timeout < 0 {
			return 0, &ValidationError{Field: "msTimeout", Reason: "must be non-negative"}
		}
		return *cfg.Timeout, nil
	}

	if env.timeoutErr != nil {
		return 0, &ValidationError{Field: "msTimeout", Reason: env.timeoutErr.Error()}
	}
	if env.Timeout != nil {
		return *env.Timeout, nil
	}
	return 0, nil
}

// isSchemaObject отсекает typed-nil и некомпилированные схемы.
func isSchemaObject(s JobSchema) bool {
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Func, reflect.Slice:
		if v.IsNil() {
			return false
		}
	}
	if c, ok := s.(interface{ Compiled() bool }); ok {
		return c.Compiled()
	}
	return true
}

// Queue возвращает имя очереди.
func (w *Worker) Queue() string {
	return w.queue
}

// Timeout возвращает итоговый таймаут task (0 — без таймаута).
func (w *Worker) Timeout() time.Duration {
	return w.timeout
}

// Attempt возвращает номер текущей попытки (начиная с 1 после первого Run).
func (w *Worker) Attempt() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attempt
}

// RetryDelay возвращает задержку перед следующим retry.
func (w *Worker) RetryDelay() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.retryDelay
}

// Finished закрывается, когда job достиг терминального состояния.
func (w *Worker) Finished() <-chan struct{} {
	return w.finished
}

// Status возвращает текущий статус job.
func (w *Worker) Status() domain.JobStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Cancel отменяет запланированный retry.
//
// Если попытка выполняется прямо сейчас, она доходит до конца:
// успех завершает job как SUCCEEDED, а retry вместо планирования
// завершает job как CANCELLED.
func (w *Worker) Cancel() {
	w.mu.Lock()
	w.cancelled = true
	pending := w.retryTimer != nil && w.retryTimer.Stop()
	w.retryTimer = nil
	idle := w.running == 0
	w.mu.Unlock()

	if pending || idle {
		w.settle(domain.JobStatusCancelled)
	}
}

// settle фиксирует терминальный статус. Пока идут попытки, Finished()
// закрывается последней из них в endAttempt, иначе сразу.
// Побеждает первый зафиксированный статус.
func (w *Worker) settle(status domain.JobStatus) {
	w.mu.Lock()
	if w.settled == "" {
		w.settled = status
	}
	status = w.settled
	idle := w.running == 0
	w.mu.Unlock()

	if idle {
		w.finish(status)
	}
}

// endAttempt снимает попытку с учёта. Вызывается после Stop таймера и Done.
func (w *Worker) endAttempt() {
	w.mu.Lock()
	w.running--
	status := w.settled
	idle := w.running == 0
	w.mu.Unlock()

	if idle && status != "" {
		w.finish(status)
	}
}

// finish закрывает Finished(). Повторные вызовы игнорируются.
func (w *Worker) finish(status domain.JobStatus) {
	w.finishOnce.Do(func() {
		w.mu.Lock()
		w.status = status
		stopWatch := w.stopWatch
		w.mu.Unlock()

		if stopWatch != nil {
			stopWatch()
		}
		close(w.finished)
	})
}

// watchContext отменяет Worker при отмене ctx. Регистрируется один раз.
func (w *Worker) watchContext(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopWatch == nil {
		w.stopWatch = context.AfterFunc(ctx, w.Cancel)
	}
}
