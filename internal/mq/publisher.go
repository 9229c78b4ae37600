package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher публикует jobs в очереди задач.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// newJobPublishing сериализует job в persistent JSON сообщение с новым message id.
func newJobPublishing(job any) (amqp.Publishing, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal job: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}

// PublishJob публикует job в queue через default exchange (routing key = имя очереди).
// Возвращает message id.
func (p *Publisher) PublishJob(ctx context.Context, queue string, job any) (string, error) {
	msg, err := newJobPublishing(job)
	if err != nil {
		return "", err
	}

	err = p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		return ch.PublishWithContext(
			ctx,
			"",    // default exchange
			queue, // routing key
			false, // mandatory
			false, // immediate
			msg,
		)
	})
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", queue, err)
	}

	p.logger.Debug("published job", "queue", queue, "message_id", msg.MessageId)
	return msg.MessageId, nil
}
