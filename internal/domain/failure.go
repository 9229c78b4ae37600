package domain

import (
	"time"

	"github.com/google/uuid"
)

// Failure — отчёт об ошибке выполнения job.
//
// Создаётся errcat.StoreReporter для каждой ошибки, которую Worker
// отправил в репортинг (включая ошибки, после которых будет retry).
type Failure struct {
	// ID — уникальный идентификатор отчёта.
	ID uuid.UUID `json:"id"`

	// Queue — очередь, из которой получен job.
	Queue string `json:"queue"`

	// Kind — вид ошибки: "stop", "timeout", "generic".
	Kind string `json:"kind"`

	// Message — текст ошибки.
	Message string `json:"message"`

	// Job — payload job (как он был получен из очереди).
	Job any `json:"job,omitempty"`

	// Data — остальной контекст ошибки.
	Data map[string]any `json:"data,omitempty"`

	// CreatedAt — время отчёта.
	CreatedAt time.Time `json:"created_at"`
}

// NewFailure создаёт Failure с новым ID и текущим временем.
func NewFailure(queue, kind, message string) *Failure {
	return &Failure{
		ID:        uuid.New(),
		Queue:     queue,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// IsTerminal возвращает true для ошибок, после которых retry не будет.
func (f *Failure) IsTerminal() bool {
	return f.Kind == "stop"
}
