package worker

import (
	"maps"
	"strings"
)

// deriveTags строит теги метрик из имени очереди.
//
// Иерархическая очередь "some.queue.name":
//
//	{queue, token0: "name", token1: "queue.name", token2: "some.queue.name"}
//
// Плоская очередь "some-queue-name":
//
//	{queue, token0: "some-queue-name"}
func deriveTags(queue string) map[string]string {
	tags := map[string]string{"queue": queue}

	parts := strings.Split(queue, ".")
	if len(parts) < 2 {
		tags["token0"] = queue
		return tags
	}

	n := len(parts)
	tags["token0"] = parts[n-1]
	tags["token1"] = strings.Join(parts[n-2:], ".")
	tags["token2"] = queue
	return tags
}

// eventTags возвращает копию тегов Worker.
func (w *Worker) eventTags() map[string]string {
	return maps.Clone(w.tags)
}
