// Ponos CLI — публикация jobs и просмотр отчётов об ошибках.
//
// Использование:
//
//	ponos-cli [--rabbitmq-url URL] [--db-url DSN] [--json] <command> [flags]
//
// Команды:
//
//	publish   Публикация job в очередь
//	failures  Отчёты об ошибках jobs
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Ponos/internal/cli"
	"github.com/shaiso/Ponos/internal/mq"
	"github.com/shaiso/Ponos/internal/repo"
	"github.com/shaiso/Ponos/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var rabbitURL string
	var dbURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "ponos-cli",
		Short:         "Ponos CLI — publish jobs and inspect failures",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&rabbitURL, "rabbitmq-url", envOr("RABBITMQ_URL", mq.DefaultURL()), "RabbitMQ URL")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", envOr("DB_URL", repo.DefaultDSN), "Postgres DSN")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	logger := telemetry.NewLogger(os.Stderr, "text", slog.LevelWarn)
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	publisherFn := func(ctx context.Context) (cli.JobPublisher, func(), error) {
		conn, err := mq.NewConnection(rabbitURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return mq.NewPublisher(conn, logger), func() { conn.Close() }, nil
	}

	storeFn := func(ctx context.Context) (cli.FailureStore, func(), error) {
		pool, err := repo.NewPool(ctx, dbURL)
		if err != nil {
			return nil, nil, err
		}
		return repo.NewFailureRepo(pool), pool.Close, nil
	}

	rootCmd.AddCommand(
		cli.NewPublishCmd(publisherFn, outputFn),
		cli.NewFailuresCmd(storeFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
