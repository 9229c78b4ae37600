package tasks

import (
	"context"
	"time"
)

const maxDelay = 300 * time.Second

// Delay ждёт duration_sec секунд (default: 1, максимум 300). Учитывает отмену ctx.
func Delay(ctx context.Context, job any) (any, error) {
	cfg, err := jobConfig(job)
	if err != nil {
		return nil, err
	}

	d := min(getSeconds(cfg, "duration_sec", time.Second), maxDelay)

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return map[string]any{"delayed_sec": d.Seconds()}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Echo возвращает job как результат.
func Echo(_ context.Context, job any) (any, error) {
	return job, nil
}
