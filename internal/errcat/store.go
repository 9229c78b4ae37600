package errcat

import (
	"context"
	"fmt"
	"maps"

	"github.com/shaiso/Ponos/internal/domain"
)

// FailureStore сохраняет отчёты об ошибках. Реализация: repo.FailureRepo.
type FailureStore interface {
	Create(ctx context.Context, failure *domain.Failure) error
}

// StoreReporter — Reporter, сохраняющий ошибки в FailureStore.
type StoreReporter struct {
	store FailureStore
}

// NewStoreReporter создаёт StoreReporter.
func NewStoreReporter(store FailureStore) *StoreReporter {
	return &StoreReporter{store: store}
}

// Report реализует Reporter.
func (r *StoreReporter) Report(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	failure := NewFailure(err)
	if err := r.store.Create(ctx, failure); err != nil {
		return fmt.Errorf("store failure: %w", err)
	}
	return nil
}

// NewFailure строит domain.Failure из обогащённой ошибки.
// queue и job переносятся из контекста ошибки в отдельные поля.
func NewFailure(err error) *domain.Failure {
	data := maps.Clone(ContextData(err))

	var queue string
	if q, ok := data["queue"].(string); ok {
		queue = q
	}

	failure := domain.NewFailure(queue, KindName(err), err.Error())
	if job, ok := data["job"]; ok {
		failure.Job = job
	}

	delete(data, "queue")
	delete(data, "job")
	if len(data) > 0 {
		failure.Data = data
	}

	return failure
}
