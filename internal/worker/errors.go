package worker

import (
	"errors"
	"fmt"
)

// Kind — вид ошибки выполнения job.
type Kind int

// Виды ошибок.
const (
	// KindGeneric — любая другая ошибка task. Retry в пределах MaxNumRetries.
	KindGeneric Kind = iota

	// KindConfiguration — ошибка конфигурации Worker. Возникает только в New().
	KindConfiguration

	// KindStop — явный сигнал остановки. Никогда не ретраится.
	KindStop

	// KindTimeout — task не уложился в Timeout. Retry в пределах MaxNumRetries.
	KindTimeout
)

// String возвращает имя вида ошибки.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindStop:
		return "stop"
	case KindTimeout:
		return "timeout"
	default:
		return "generic"
	}
}

// Сообщения терминальных ошибок.
const (
	msgFinalRetry = "final retry handler finished"
	msgTimeout    = "task timed out"
	msgInvalidJob = "job failed schema validation"
)

// ErrTaskPanicked — task завершился panic.
var ErrTaskPanicked = errors.New("task panicked")

// Error — ошибка выполнения job с видом и контекстом.
//
// Data содержит контекст (queue, job и данные, добавленные task).
// Cause — исходная ошибка, если Error её оборачивает.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Data    map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Message == "" && e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ContextData возвращает контекст ошибки (используется errcat).
func (e *Error) ContextData() map[string]any {
	return e.Data
}

// KindName возвращает имя вида ошибки (используется errcat).
func (e *Error) KindName() string {
	return e.Kind.String()
}

// DataError — ошибка task с собственным контекстом.
//
// Если ErrorData возвращает map[string]any, контекст переносится в *Error.
// Любое другое значение (строка, число) отбрасывается при обогащении.
type DataError interface {
	error
	ErrorData() any
}

// causer — ошибка-обёртка, раскрываемая при обогащении на один уровень.
type causer interface {
	Cause() error
}

// Stop создаёт ошибку остановки. Task возвращает её, когда повторять job бессмысленно.
func Stop(message string, cause error) *Error {
	return &Error{Kind: KindStop, Message: message, Cause: cause}
}

// Timeout создаёт ошибку таймаута.
func Timeout(message string) *Error {
	return &Error{Kind: KindTimeout, Message: message}
}

// WithData прикрепляет контекст к ошибке. Возвращает *Error для цепочек.
func WithData(err error, data map[string]any) *Error {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Kind: KindGeneric, Cause: err}
	}
	if e.Data == nil {
		e.Data = make(map[string]any, len(data))
	}
	for k, v := range data {
		e.Data[k] = v
	}
	return e
}

// KindOf возвращает вид ошибки. Ошибки вне пакета считаются KindGeneric.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindConfiguration
	}
	return KindGeneric
}

// IsStop проверяет, является ли err сигналом остановки.
func IsStop(err error) bool {
	return KindOf(err) == KindStop
}

// IsTimeout проверяет, является ли err таймаутом task.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}

// ValidationError — ошибка конфигурации Worker, указывающая на поле.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid worker config: %q %s", e.Field, e.Reason)
}
