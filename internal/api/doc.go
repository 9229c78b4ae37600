// Package api — служебный HTTP API процесса ponos-worker.
//
// Endpoints:
//
//	GET  /api/v1/queues                 — очереди, на которых зарегистрированы task
//	POST /api/v1/queues/{queue}/jobs    — публикация job (тело запроса — job)
//	GET  /api/v1/failures               — последние отчёты об ошибках (?queue=&limit=)
//	GET  /api/v1/failures/{id}          — один отчёт
//
// Ответы: {"data": ...} или {"error": {"code", "message"}}.
// Отчёты доступны, только если процесс подключён к Postgres (DB_URL).
package api
