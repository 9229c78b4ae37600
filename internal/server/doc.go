// Package server связывает очереди RabbitMQ с task.
//
// Server регистрирует task на очередях, объявляет для них топологию
// (очередь + DLQ) и на каждое сообщение создаёт worker.Worker.
// Итог job определяет судьбу сообщения:
//
//	SUCCEEDED → ack
//	STOPPED   → nack без requeue (брокер уводит сообщение в dlq.<queue>)
//	CANCELLED → nack с requeue (остановка процесса, сообщение вернётся в очередь)
//
// Сообщение, которое не декодируется как JSON или не проходит worker.New(),
// сразу отклоняется без requeue.
package server
