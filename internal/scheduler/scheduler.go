package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const publishTimeout = 10 * time.Second

// Publisher публикует job в очередь (mq.Publisher).
type Publisher interface {
	PublishJob(ctx context.Context, queue string, job any) (string, error)
}

// Scheduler публикует jobs по расписаниям.
type Scheduler struct {
	cron      *cron.Cron
	publisher Publisher
	logger    *slog.Logger
	schedules []Schedule
}

// New проверяет расписания и создаёт Scheduler.
func New(publisher Publisher, logger *slog.Logger, schedules []Schedule) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC)),
		publisher: publisher,
		logger:    logger.With("component", "scheduler"),
		schedules: schedules,
	}

	for i := range schedules {
		sched := schedules[i]
		if err := sched.Validate(); err != nil {
			return nil, err
		}
		if _, err := s.cron.AddFunc(sched.expr(), func() { s.publish(sched) }); err != nil {
			return nil, fmt.Errorf("add schedule %s: %w", sched.Name, err)
		}
	}

	return s, nil
}

// Start запускает расписания в фоне.
func (s *Scheduler) Start() {
	s.cron.Start()

	now := time.Now()
	for _, sched := range s.schedules {
		next, _ := sched.Next(now)
		s.logger.Info("schedule registered", "name", sched.Name, "queue", sched.Queue, "next", next)
	}
}

// Stop останавливает расписания и ждёт публикаций, которые уже идут.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// publish — одно срабатывание расписания. Ошибка только логируется:
// следующее срабатывание будет по расписанию.
func (s *Scheduler) publish(sched Schedule) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	id, err := s.publisher.PublishJob(ctx, sched.Queue, sched.Job)
	if err != nil {
		s.logger.Error("failed to publish scheduled job", "name", sched.Name, "queue", sched.Queue, "error", err)
		return
	}
	s.logger.Info("scheduled job published", "name", sched.Name, "queue", sched.Queue, "message_id", id)
}
