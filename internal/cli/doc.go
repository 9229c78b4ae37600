// Package cli реализует команды ponos-cli.
//
// # Команды
//
//   - publish QUEUE --job JSON — публикует job в очередь задач
//   - failures list [--queue Q] [--limit N] — последние отчёты об ошибках
//   - failures prune --older-than DURATION — удаляет старые отчёты
//
// # Output
//
// Таблицы (text/tabwriter) по умолчанию, JSON с флагом --json.
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr:
//
//	ponos-cli failures list --json | jq .
//
// Каждая команда создаётся фабрикой (NewPublishCmd, NewFailuresCmd),
// принимающей замыкания для ленивого подключения к RabbitMQ/Postgres
// после парсинга PersistentFlags.
package cli
