package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shaiso/Ponos/internal/domain"
	"github.com/shaiso/Ponos/internal/telemetry"
	"github.com/shaiso/Ponos/internal/worker"
)

// delivery — сообщение, которое можно подтвердить или отклонить (*mq.Delivery).
type delivery interface {
	Body() []byte
	MessageID() string
	Ack() error
	Nack(requeue bool) error
}

// handleDelivery выполняет job из сообщения и подтверждает его по итогу.
// Блокируется до терминального состояния job, включая все retry.
func (s *Server) handleDelivery(ctx context.Context, reg registration, d delivery) {
	logger := telemetry.WithMessageID(s.logger, d.MessageID())

	var job any
	if err := json.Unmarshal(d.Body(), &job); err != nil {
		logger.Error("failed to decode job", "queue", reg.queue, "error", err)
		nack(logger, d, false)
		return
	}

	w, err := worker.New(worker.Config{
		Queue:     reg.queue,
		Task:      reg.task,
		Job:       job,
		JobSchema: reg.opts.JobSchema,
		Logger:    logger,
		Done: func() {
			logger.Debug("attempt finished", "queue", reg.queue)
		},
		Timeout:       reg.opts.Timeout,
		ErrorCat:      s.errorCat,
		Monitor:       s.monitor,
		MaxNumRetries: reg.opts.MaxNumRetries,
		RetryDelay:    reg.opts.RetryDelay,
		MaxRetryDelay: reg.opts.MaxRetryDelay,
		FinalRetryFn:  reg.opts.FinalRetryFn,
		Env:           s.env,
	})
	if err != nil {
		logger.Error("failed to create worker", "queue", reg.queue, "error", err)
		nack(logger, d, false)
		return
	}

	w.Run(ctx)
	<-w.Finished()

	switch status := w.Status(); status {
	case domain.JobStatusSucceeded:
		if err := d.Ack(); err != nil {
			logger.Error("failed to ack message", "queue", reg.queue, "error", err)
		}
	case domain.JobStatusStopped:
		nack(logger, d, false)
	default:
		logger.Info("job cancelled, returning to queue", "queue", reg.queue, "status", status)
		nack(logger, d, true)
	}
}

func nack(logger *slog.Logger, d delivery, requeue bool) {
	if err := d.Nack(requeue); err != nil {
		logger.Error("failed to nack message", "requeue", requeue, "error", err)
	}
}
