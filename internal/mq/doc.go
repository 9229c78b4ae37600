// Package mq — транспорт RabbitMQ для Ponos.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление очереди задач и её DLQ
//   - publisher.go  — публикация jobs
//   - consumer.go   — потребление очереди, обработка сообщений в горутинах
//
// Каждая очередь задач публикуется через default exchange (routing key = имя очереди)
// и имеет dead letter очередь dlq.<queue> за обменником ponos.dlq.
// Решение об ack/nack принимает Handler (см. internal/server).
package mq
