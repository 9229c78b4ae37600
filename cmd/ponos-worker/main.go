// Ponos Worker — выполняет jobs из очередей RabbitMQ.
//
// Worker:
//   - Регистрирует встроенные task (ponos.http, ponos.delay, ponos.echo, ponos.render)
//   - На каждое сообщение создаёт worker.Worker: таймаут, retry, метрики
//   - Отчёты об ошибках пишет в лог и, если задан DB_URL, в Postgres
//   - Публикует периодические jobs из PONOS_SCHEDULES_FILE
//   - Отдаёт /healthz, /metrics и служебный API (/api/v1)
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Ponos/internal/api"
	"github.com/shaiso/Ponos/internal/config"
	"github.com/shaiso/Ponos/internal/errcat"
	"github.com/shaiso/Ponos/internal/mq"
	"github.com/shaiso/Ponos/internal/repo"
	"github.com/shaiso/Ponos/internal/scheduler"
	"github.com/shaiso/Ponos/internal/server"
	"github.com/shaiso/Ponos/internal/tasks"
	"github.com/shaiso/Ponos/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger("ponos-worker")
	logger.Info("starting ponos-worker")

	if err := run(logger); err != nil {
		logger.Error("ponos-worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ponos-worker stopped")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reporter := errcat.Reporter(errcat.NewLogReporter(logger))
	var failureReader api.FailureReader
	if cfg.DBURL != "" {
		pool, err := repo.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		failures := repo.NewFailureRepo(pool)
		if err := failures.EnsureSchema(ctx); err != nil {
			return err
		}
		reporter = errcat.Multi(reporter, errcat.NewStoreReporter(failures))
		failureReader = failures
		logger.Info("database connected, failures will be stored")
	}
	errcat.SetDefault(reporter)

	conn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	srv := server.New(server.Config{
		Conn:     conn,
		Logger:   logger,
		Prefetch: cfg.Prefetch,
		ErrorCat: reporter,
		Monitor:  telemetry.DefaultMonitor(),
		Env:      &cfg.Worker,
	})

	httpClient := &http.Client{Timeout: 2 * time.Minute}
	for _, b := range tasks.Builtins(httpClient) {
		opts := server.TaskOptions{Timeout: b.Timeout}
		if b.Schema != nil {
			opts.JobSchema = b.Schema
		}
		if err := srv.RegisterTask(b.Queue, b.Task, opts); err != nil {
			return err
		}
	}

	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer srv.Stop()

	publisher := mq.NewPublisher(conn, logger)

	if cfg.SchedulesFile != "" {
		schedules, err := scheduler.LoadFile(cfg.SchedulesFile)
		if err != nil {
			return err
		}
		sched, err := scheduler.New(publisher, logger, schedules)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	// HTTP mux: /healthz + /metrics + /api/v1
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !conn.IsConnected() {
			http.Error(w, "rabbitmq disconnected", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	handler := api.NewHandler(api.Config{
		Publisher: publisher,
		Failures:  failureReader,
		Queues:    srv.Queues(),
		Logger:    logger,
	})
	handler.RegisterRoutes(mux)

	httpSrv := &http.Server{Addr: cfg.Addr(), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)

	return nil
}
