package tasks

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shaiso/Ponos/internal/worker"
)

// Очереди встроенных task.
const (
	QueueHTTP   = "ponos.http"
	QueueDelay  = "ponos.delay"
	QueueEcho   = "ponos.echo"
	QueueRender = "ponos.render"
)

// Ошибки встроенных task.
var (
	// ErrInvalidJob — job не содержит нужной конфигурации.
	ErrInvalidJob = errors.New("invalid job")

	// ErrHTTPRequest — запрос не удалось выполнить.
	ErrHTTPRequest = errors.New("http request failed")

	// ErrTemplateParse — ошибка разбора шаблона.
	ErrTemplateParse = errors.New("template parse error")

	// ErrTemplateRender — ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render error")
)

// Builtin — встроенный task вместе с его очередью и схемой job.
type Builtin struct {
	Queue  string
	Task   worker.TaskFunc
	Schema *worker.JSONSchema

	// Timeout — таймаут task по умолчанию (nil — из окружения).
	Timeout *time.Duration
}

// Builtins возвращает все встроенные task. client используется HTTP task (nil — http.DefaultClient).
func Builtins(client *http.Client) []Builtin {
	return []Builtin{
		{Queue: QueueHTTP, Task: NewHTTP(client), Schema: mustSchema(QueueHTTP, httpSchema)},
		{Queue: QueueDelay, Task: Delay, Schema: mustSchema(QueueDelay, delaySchema), Timeout: worker.TimeoutMs(int(maxDelay.Milliseconds()) + 1000)},
		{Queue: QueueEcho, Task: Echo},
		{Queue: QueueRender, Task: Render, Schema: mustSchema(QueueRender, renderSchema)},
	}
}

func mustSchema(queue, source string) *worker.JSONSchema {
	return worker.MustCompileJSONSchema(queue+".json", source)
}

// jobConfig приводит job к map. Job другого вида повторять бессмысленно.
func jobConfig(job any) (map[string]any, error) {
	cfg, ok := job.(map[string]any)
	if !ok {
		return nil, worker.Stop("job must be an object", fmt.Errorf("%w: got %T", ErrInvalidJob, job))
	}
	return cfg, nil
}

// getString извлекает строку из map с default значением.
func getString(m map[string]any, key, defaultVal string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return defaultVal
}

// getSeconds извлекает длительность в секундах. Неположительные значения игнорируются.
func getSeconds(m map[string]any, key string, defaultVal time.Duration) time.Duration {
	var sec float64
	switch v := m[key].(type) {
	case float64:
		sec = v
	case int:
		sec = float64(v)
	}
	if sec <= 0 {
		return defaultVal
	}
	return time.Duration(sec * float64(time.Second))
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
