package api

import (
	"encoding/json"
	"io"
	"net/http"
)

const maxJobSize = 1 << 20 // 1 MB

// PublishJobResponse — ответ на публикацию job.
type PublishJobResponse struct {
	MessageID string `json:"message_id"`
	Queue     string `json:"queue"`
}

// ListQueues возвращает очереди с зарегистрированными task.
func (h *Handler) ListQueues(w http.ResponseWriter, r *http.Request) {
	List(w, h.queues)
}

// PublishJob публикует тело запроса как job в очередь.
func (h *Handler) PublishJob(w http.ResponseWriter, r *http.Request) {
	queue := r.PathValue("queue")
	if !h.hasQueue(queue) {
		NotFound(w, "no task registered for queue "+queue)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJobSize))
	if err != nil {
		BadRequest(w, "read body: "+err.Error())
		return
	}

	var job any
	if err := json.Unmarshal(body, &job); err != nil {
		BadRequest(w, "job is not valid JSON")
		return
	}
	if job == nil {
		BadRequest(w, "job must not be null")
		return
	}

	id, err := h.publisher.PublishJob(r.Context(), queue, job)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, PublishJobResponse{MessageID: id, Queue: queue})
}
