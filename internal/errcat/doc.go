// Package errcat — клиент репортинга ошибок jobs.
//
// Worker отправляет в Reporter каждую ошибку выполнения после обогащения
// контекстом (queue, job). Реализации:
//   - LogReporter — пишет ошибку в slog (используется по умолчанию)
//   - StoreReporter — сохраняет ошибку в FailureStore (Postgres, см. repo.FailureRepo)
//   - Multi — рассылает ошибку нескольким Reporter
//
// Reporter общий для всех Worker процесса и должен быть потокобезопасным.
package errcat
