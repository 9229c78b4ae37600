package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shaiso/Ponos/internal/telemetry"
	"github.com/shaiso/Ponos/internal/worker"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB
)

// HTTPError — ответ с кодом >= 400.
//
// Реализует worker.DataError: status_code и body попадают в контекст ошибки.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, truncate(e.Body, 200))
}

// ErrorData реализует worker.DataError.
func (e *HTTPError) ErrorData() any {
	return map[string]any{
		"status_code": e.StatusCode,
		"body":        truncate(e.Body, 1000),
	}
}

// NewHTTP возвращает task, выполняющий HTTP-запрос из job.
//
// Job:
//   - method (string): HTTP-метод. Default: GET
//   - url (string): URL запроса (обязательно)
//   - headers (map[string]string): заголовки
//   - body (any): тело запроса (сериализуется в JSON)
//   - timeout_sec (number): таймаут запроса. Default: 30
//
// Результат: {"status_code", "headers", "body"}.
// 4xx — worker.Stop (retry не поможет), 5xx и сетевые ошибки — retry.
func NewHTTP(client *http.Client) worker.TaskFunc {
	if client == nil {
		client = http.DefaultClient
	}

	return func(ctx context.Context, job any) (any, error) {
		cfg, err := jobConfig(job)
		if err != nil {
			return nil, err
		}

		url := getString(cfg, "url", "")
		if url == "" {
			return nil, worker.Stop("url is required", ErrInvalidJob)
		}

		ctx, cancel := context.WithTimeout(ctx, getSeconds(cfg, "timeout_sec", defaultHTTPTimeout))
		defer cancel()

		req, err := buildRequest(ctx, getString(cfg, "method", http.MethodGet), url, cfg)
		if err != nil {
			return nil, worker.Stop("build request", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHTTPRequest, err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return nil, fmt.Errorf("%w: read response: %v", ErrHTTPRequest, err)
		}

		telemetry.FromContext(ctx).Debug("http request finished",
			"method", req.Method,
			"url", url,
			"status", resp.StatusCode,
		)

		if resp.StatusCode >= 400 {
			httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
			if resp.StatusCode < 500 {
				return nil, worker.Stop("client error", httpErr)
			}
			return nil, httpErr
		}

		return buildOutputs(resp, respBody), nil
	}
}

func buildRequest(ctx context.Context, method, url string, cfg map[string]any) (*http.Request, error) {
	var body io.Reader
	if b, ok := cfg["body"]; ok && b != nil {
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if headers, ok := cfg["headers"].(map[string]any); ok {
		for key, val := range headers {
			if s, ok := val.(string); ok {
				req.Header.Set(key, s)
			}
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// buildOutputs формирует результат из HTTP-ответа. Тело — JSON или строка.
func buildOutputs(resp *http.Response, body []byte) map[string]any {
	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		parsed = string(body)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        parsed,
	}
}
