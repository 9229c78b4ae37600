// Package worker выполняет один job, полученный из очереди.
//
// # Обзор
//
// Worker — движок выполнения одного сообщения. Он отвечает за:
//
//   - Проверку job по схеме (JobSchema)
//   - Выполнение task с таймаутом
//   - Классификацию результата (успех, stop, timeout, прочая ошибка)
//   - Обогащение ошибок контекстом (queue, job) и репортинг в errcat
//   - Retry с exponential backoff и потолком MaxNumRetries
//   - Метрики ponos.* через telemetry.Monitor
//
// Подключение к RabbitMQ, ack/nack и конфигурация процесса
// находятся снаружи (см. internal/server).
//
// # Использование
//
//	w, err := worker.New(worker.Config{
//	    Queue:  "do.something.command",
//	    Task:   task,
//	    Job:    job,
//	    Logger: logger,
//	    Done:   func() {},
//	})
//	if err != nil {
//	    return err // *worker.ValidationError
//	}
//
//	w.Run(ctx)
//	<-w.Finished()
//
// # Попытка (Run)
//
//  1. Таймер ponos.timer
//  2. validateJob → wrapTask
//  3. Успех → ponos.finish{result=success}
//  4. Ошибка → addDataToError → классификация:
//     stop → ponos.finish-error{result=fatal-error}, репорт, конец;
//     timeout → ponos.finish-error{result=timeout-error}, репорт, enforceRetryLimit;
//     прочие → репорт, enforceRetryLimit.
//  5. enforceRetryLimit: лимит не исчерпан → retryWithDelay,
//     исчерпан → FinalRetryFn, ponos.finish-error{result=retry-error}, stop.
//
// Таймер останавливается и Done вызывается ровно один раз на каждый Run().
// Finished() закрывается после Done последней попытки: к этому моменту
// все Done уже вызваны.
//
// # Retry
//
// Retry выполняется в процессе через time.AfterFunc, без блокирующего ожидания.
// Задержка начинается с RetryDelay и удваивается после каждого retry,
// не превышая MaxRetryDelay.
//
// # Ошибки
//
// Error.Kind различает виды ошибок:
//   - KindStop — task вернул worker.Stop(), job не прошёл схему или исчерпан retry
//   - KindTimeout — task не уложился в Timeout
//   - KindGeneric — любая другая ошибка
//   - KindConfiguration — только из New() (*ValidationError)
//
// # Окружение
//
//   - WORKER_TIMEOUT — таймаут task в миллисекундах, если Config.Timeout не задан
//   - WORKER_MONITOR_DISABLED — отключает все вызовы Monitor
//   - WORKER_MAX_NUM_RETRIES, WORKER_MAX_RETRY_DELAY — дефолты retry
//
// Окружение читается один раз в New().
package worker
