package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Ponos/internal/domain"
)

// Лимиты выборки ListRecent.
const (
	DefaultListLimit = 20
	MaxListLimit     = 500
)

const failuresSchema = `
	CREATE TABLE IF NOT EXISTS job_failures (
		id         UUID PRIMARY KEY,
		queue      TEXT NOT NULL,
		kind       TEXT NOT NULL,
		message    TEXT NOT NULL,
		job        JSONB,
		data       JSONB,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS job_failures_queue_created_at_idx
		ON job_failures (queue, created_at DESC);
`

// FailureRepo хранит отчёты об ошибках jobs (реализует errcat.FailureStore).
type FailureRepo struct {
	pool *pgxpool.Pool
}

// NewFailureRepo создаёт FailureRepo.
func NewFailureRepo(pool *pgxpool.Pool) *FailureRepo {
	return &FailureRepo{pool: pool}
}

// EnsureSchema создаёт таблицу job_failures, если её нет.
func (r *FailureRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, failuresSchema); err != nil {
		return fmt.Errorf("ensure failures schema: %w", err)
	}
	return nil
}

// Create сохраняет отчёт.
func (r *FailureRepo) Create(ctx context.Context, f *domain.Failure) error {
	jobJSON, err := marshalNullable(f.Job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	dataJSON, err := marshalNullable(f.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	query := `
		INSERT INTO job_failures (id, queue, kind, message, job, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query,
		f.ID,
		f.Queue,
		f.Kind,
		f.Message,
		jobJSON,
		dataJSON,
		f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert failure: %w", err)
	}
	return nil
}

// GetByID возвращает отчёт по ID.
func (r *FailureRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Failure, error) {
	query := `
		SELECT id, queue, kind, message, job, data, created_at
		FROM job_failures
		WHERE id = $1
	`
	f, err := scanFailure(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

// ListRecent возвращает последние отчёты, новые первыми.
// Пустая queue — все очереди.
func (r *FailureRepo) ListRecent(ctx context.Context, queue string, limit int) ([]domain.Failure, error) {
	query := `
		SELECT id, queue, kind, message, job, data, created_at
		FROM job_failures
		WHERE ($1::text IS NULL OR queue = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, nullString(queue), clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	defer rows.Close()

	var failures []domain.Failure
	for rows.Next() {
		f, err := scanFailure(rows)
		if err != nil {
			return nil, err
		}
		failures = append(failures, *f)
	}
	return failures, rows.Err()
}

// DeleteBefore удаляет отчёты старше before. Возвращает число удалённых строк.
func (r *FailureRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM job_failures WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete failures: %w", err)
	}
	return result.RowsAffected(), nil
}

// --- Helpers ---

// scanFailure сканирует строку (pgx.Row или pgx.Rows) в Failure.
func scanFailure(row pgx.Row) (*domain.Failure, error) {
	var f domain.Failure
	var jobJSON, dataJSON []byte

	err := row.Scan(
		&f.ID,
		&f.Queue,
		&f.Kind,
		&f.Message,
		&jobJSON,
		&dataJSON,
		&f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan failure: %w", err)
	}

	if jobJSON != nil {
		if err := json.Unmarshal(jobJSON, &f.Job); err != nil {
			return nil, fmt.Errorf("unmarshal job: %w", err)
		}
	}
	if dataJSON != nil {
		if err := json.Unmarshal(dataJSON, &f.Data); err != nil {
			return nil, fmt.Errorf("unmarshal data: %w", err)
		}
	}

	return &f, nil
}

// marshalNullable возвращает nil для пустого значения (NULL в БД).
func marshalNullable(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if len(t) == 0 {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}
