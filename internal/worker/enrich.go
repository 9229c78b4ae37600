package worker

import (
	"errors"
	"maps"
)

// addDataToError нормализует ошибку task в *Error с контекстом job.
//
//  1. Обёртка с Cause() раскрывается на один уровень.
//  2. Data всегда map: контекст из DataError копируется, если это map,
//     иначе (строка, число) отбрасывается.
//  3. data["queue"] и data["job"] заполняются, если ещё не заданы.
//
// Ошибка не поглощается: результат всегда идёт дальше по цепочке обработки.
func (w *Worker) addDataToError(err error) *Error {
	if c, ok := err.(causer); ok {
		if cause := c.Cause(); cause != nil {
			err = cause
		}
	}

	var e *Error
	if top, ok := err.(*Error); ok {
		e = top
	} else if errors.As(err, &e) {
		// *Error внутри fmt.Errorf("...: %w"): сохраняем внешний текст,
		// Data копируется, чтобы не менять ошибку task
		e = &Error{Kind: e.Kind, Cause: err, Data: maps.Clone(e.Data)}
	} else {
		e = &Error{Kind: KindGeneric, Cause: err}
	}

	if e.Data == nil {
		e.Data = make(map[string]any)
		var de DataError
		if errors.As(err, &de) {
			if data, ok := de.ErrorData().(map[string]any); ok {
				maps.Copy(e.Data, data)
			}
		}
	}

	if _, ok := e.Data["queue"]; !ok {
		e.Data["queue"] = w.queue
	}
	if _, ok := e.Data["job"]; !ok {
		e.Data["job"] = w.job
	}

	return e
}
