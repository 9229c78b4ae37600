package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/Ponos/internal/repo"
)

// ListFailures возвращает последние отчёты: ?queue=&limit=.
func (h *Handler) ListFailures(w http.ResponseWriter, r *http.Request) {
	if h.failures == nil {
		Unavailable(w, "failure store is not configured")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	failures, err := h.failures.ListRecent(r.Context(), r.URL.Query().Get("queue"), limit)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	List(w, failures)
}

// GetFailure возвращает отчёт по ID.
func (h *Handler) GetFailure(w http.ResponseWriter, r *http.Request) {
	if h.failures == nil {
		Unavailable(w, "failure store is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid failure id")
		return
	}

	failure, err := h.failures.GetByID(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		NotFound(w, "failure not found")
		return
	}
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, failure)
}
