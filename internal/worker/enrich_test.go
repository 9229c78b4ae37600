package worker

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// wrappedError — обёртка в стиле pkg/errors с методом Cause().
type wrappedError struct {
	cause error
}

func (e *wrappedError) Error() string { return "wrapped: " + e.cause.Error() }
func (e *wrappedError) Cause() error  { return e.cause }

// dataError — ошибка task с собственным контекстом.
type dataError struct {
	data any
}

func (e *dataError) Error() string  { return "data error" }
func (e *dataError) ErrorData() any { return e.data }

// --- addDataToError Tests ---

func TestAddDataToError_AddsQueueAndJob(t *testing.T) {
	h := newHarness(t, nil)

	e := h.worker.addDataToError(errors.New("boom"))

	if e.Kind != KindGeneric {
		t.Errorf("expected generic kind, got %s", e.Kind)
	}
	if e.Data["queue"] != "do.something.command" {
		t.Errorf("expected queue in data, got %v", e.Data["queue"])
	}
	if !reflect.DeepEqual(e.Data["job"], map[string]any{"foo": "bar"}) {
		t.Errorf("expected job in data, got %v", e.Data["job"])
	}
	if e.Error() != "boom" {
		t.Errorf("message should be preserved, got %q", e.Error())
	}
}

func TestAddDataToError_KeepsExistingData(t *testing.T) {
	h := newHarness(t, nil)

	err := WithData(errors.New("boom"), map[string]any{"queue": "original", "job": "custom", "extra": 1})
	e := h.worker.addDataToError(err)

	if e.Data["queue"] != "original" {
		t.Errorf("existing queue should not be overwritten, got %v", e.Data["queue"])
	}
	if e.Data["job"] != "custom" {
		t.Errorf("existing job should not be overwritten, got %v", e.Data["job"])
	}
	if e.Data["extra"] != 1 {
		t.Errorf("extra data should survive, got %v", e.Data["extra"])
	}
}

func TestAddDataToError_UnwrapsCause(t *testing.T) {
	h := newHarness(t, nil)

	cause := Stop("stop now", nil)
	e := h.worker.addDataToError(&wrappedError{cause: cause})

	if e != cause {
		t.Error("wrapper should be replaced by its cause")
	}
	if e.Kind != KindStop {
		t.Errorf("expected stop kind from cause, got %s", e.Kind)
	}
}

func TestAddDataToError_WrappedKindPreserved(t *testing.T) {
	h := newHarness(t, nil)

	e := h.worker.addDataToError(fmt.Errorf("charge card: %w", Stop("card declined", nil)))

	if e.Kind != KindStop {
		t.Errorf("expected stop kind, got %s", e.Kind)
	}
	if e.Error() != "charge card: card declined" {
		t.Errorf("outer message should be kept, got %q", e.Error())
	}
}

func TestAddDataToError_WrappedDataNotShared(t *testing.T) {
	h := newHarness(t, nil)

	inner := WithData(errors.New("declined"), map[string]any{"card": "visa"})
	e := h.worker.addDataToError(fmt.Errorf("charge card: %w", inner))

	if e == inner {
		t.Fatal("wrapped error should get its own outer *Error")
	}
	if e.Data["card"] != "visa" || e.Data["queue"] != "do.something.command" {
		t.Errorf("outer data should carry inner data and context, got %v", e.Data)
	}
	if _, ok := inner.Data["queue"]; ok {
		t.Errorf("task error data must stay untouched, got %v", inner.Data)
	}
	if _, ok := inner.Data["job"]; ok {
		t.Errorf("task error data must stay untouched, got %v", inner.Data)
	}
}

func TestAddDataToError_StopCauseNotUnwrapped(t *testing.T) {
	h := newHarness(t, nil)

	stop := Stop(msgInvalidJob, errors.New("missing url"))
	e := h.worker.addDataToError(stop)

	if e != stop {
		t.Error("*Error should not be replaced by its Cause field")
	}
	if e.Kind != KindStop {
		t.Errorf("expected stop kind, got %s", e.Kind)
	}
}

func TestAddDataToError_MapDataCopied(t *testing.T) {
	h := newHarness(t, nil)

	e := h.worker.addDataToError(&dataError{data: map[string]any{"user_id": "u1"}})

	if e.Data["user_id"] != "u1" {
		t.Errorf("map data should be copied, got %v", e.Data)
	}
	if e.Data["queue"] == nil {
		t.Error("queue should be added")
	}
}

func TestAddDataToError_PrimitiveDataDiscarded(t *testing.T) {
	h := newHarness(t, nil)

	e := h.worker.addDataToError(&dataError{data: "just a string"})

	want := map[string]any{
		"queue": "do.something.command",
		"job":   map[string]any{"foo": "bar"},
	}
	if !reflect.DeepEqual(e.Data, want) {
		t.Errorf("primitive data should be replaced by a map with context only, got %v", e.Data)
	}
}
