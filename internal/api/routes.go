package api

import (
	"net/http"
)

// RegisterRoutes регистрирует маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		RequestID(),
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Jobs
	mux.Handle("GET /api/v1/queues", chain(http.HandlerFunc(h.ListQueues)))
	mux.Handle("POST /api/v1/queues/{queue}/jobs", chain(http.HandlerFunc(h.PublishJob)))

	// Failures
	mux.Handle("GET /api/v1/failures", chain(http.HandlerFunc(h.ListFailures)))
	mux.Handle("GET /api/v1/failures/{id}", chain(http.HandlerFunc(h.GetFailure)))
}
