// Package scheduler публикует периодические jobs по расписанию.
//
// Расписания задаются JSON-файлом (PONOS_SCHEDULES_FILE):
//
//	[
//	  {"name": "nightly-report", "cron": "0 3 * * *", "timezone": "Europe/Moscow",
//	   "queue": "ponos.http", "job": {"url": "https://example.com/report"}},
//	  {"name": "heartbeat", "interval_sec": 30, "queue": "ponos.echo", "job": {"ping": true}}
//	]
//
// Каждое срабатывание публикует job в очередь через Publisher; дальше
// он обрабатывается как любое другое сообщение (worker, retry, DLQ).
// Расписание хранится в памяти процесса: при нескольких репликах
// ponos-worker файл расписаний задаётся только одной из них.
package scheduler
