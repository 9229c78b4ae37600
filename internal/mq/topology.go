package mq

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeDLQ — обменник, куда RabbitMQ перекладывает отклонённые jobs.
const ExchangeDLQ = "ponos.dlq"

// DLQName возвращает имя dead letter очереди для queue.
func DLQName(queue string) string {
	return "dlq." + queue
}

// taskQueueArgs — аргументы очереди задач: nack без requeue уводит job в DLQ.
func taskQueueArgs(queue string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    ExchangeDLQ,
		"x-dead-letter-routing-key": queue,
	}
}

// DeclareTaskQueue объявляет очередь задач вместе с её DLQ.
//
//	ponos.dlq (direct)
//	└── dlq.<queue> [routing: <queue>]
//	<queue> (default exchange) → DLX ponos.dlq
//
// Объявление идемпотентно: повторный вызов с теми же аргументами ничего не меняет.
func DeclareTaskQueue(ctx context.Context, conn *Connection, queue string) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := ch.ExchangeDeclare(
			ExchangeDLQ, // name
			"direct",    // type
			true,        // durable
			false,       // auto-deleted
			false,       // internal
			false,       // no-wait
			nil,         // arguments
		); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeDLQ, err)
		}

		dlq := DLQName(queue)
		if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", dlq, err)
		}
		if err := ch.QueueBind(dlq, queue, ExchangeDLQ, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", dlq, ExchangeDLQ, err)
		}

		if _, err := ch.QueueDeclare(
			queue,                // name
			true,                 // durable
			false,                // delete when unused
			false,                // exclusive
			false,                // no-wait
			taskQueueArgs(queue), // arguments
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo(queues []string) string {
	var b strings.Builder
	b.WriteString("Ponos RabbitMQ topology:\n")
	for _, q := range queues {
		fmt.Fprintf(&b, "  %s → DLX %s → %s\n", q, ExchangeDLQ, DLQName(q))
	}
	return b.String()
}
