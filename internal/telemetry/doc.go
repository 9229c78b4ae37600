// Package telemetry — логи и метрики процессов Ponos.
//
// Логи: log/slog, формат и уровень из LOG_FORMAT и LOG_LEVEL.
// Поля job добавляются через WithQueue и WithMessageID, а логгер попытки
// доступен task через FromContext(ctx).
//
// Метрики: Monitor, общий для всех Worker процесса. PrometheusMonitor
// превращает события ponos.* в counters и histograms с labels
// queue, token0..token2 и result.
package telemetry
