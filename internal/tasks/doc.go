// Package tasks содержит встроенные task для Ponos.
//
// Каждый task — worker.TaskFunc со своей очередью и JSON-схемой job:
//
//   - ponos.http      — HTTP-запрос (HTTP)
//   - ponos.delay     — ожидание (Delay)
//   - ponos.echo      — возвращает job как результат (Echo)
//   - ponos.render    — рендер Go templates в job (Render)
//
// Ошибки классифицируются для retry в worker: ответы 4xx и невалидная
// конфигурация возвращаются как worker.Stop, 5xx и сетевые ошибки — как
// обычные ошибки (retry).
package tasks
