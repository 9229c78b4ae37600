package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Ponos/internal/domain"
)

// FailureStore читает и чистит отчёты об ошибках (repo.FailureRepo).
type FailureStore interface {
	ListRecent(ctx context.Context, queue string, limit int) ([]domain.Failure, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// StoreFunc открывает FailureStore. close освобождает пул соединений.
type StoreFunc func(ctx context.Context) (s FailureStore, close func(), err error)

// NewFailuresCmd создаёт группу команд для отчётов об ошибках.
func NewFailuresCmd(storeFn StoreFunc, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "failures",
		Short: "Inspect job failure reports",
	}

	cmd.AddCommand(
		newFailuresListCmd(storeFn, outputFn),
		newFailuresPruneCmd(storeFn, outputFn),
	)

	return cmd
}

func newFailuresListCmd(storeFn StoreFunc, outputFn func() *Output) *cobra.Command {
	var queue string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent failures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := storeFn(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			failures, err := store.ListRecent(cmd.Context(), queue, limit)
			if err != nil {
				return err
			}

			table := Table{Headers: []string{"ID", "QUEUE", "KIND", "MESSAGE", "CREATED"}}
			for _, f := range failures {
				table.Rows = append(table.Rows, []string{
					f.ID.String(),
					f.Queue,
					f.Kind,
					truncate(f.Message, 60),
					f.CreatedAt.Format(time.RFC3339),
				})
			}

			outputFn().Print(table, failures)
			return nil
		},
	}

	cmd.Flags().StringVar(&queue, "queue", "", "Filter by queue")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (default 20)")

	return cmd
}

func newFailuresPruneCmd(storeFn StoreFunc, outputFn func() *Output) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete failures older than the given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}

			store, closeFn, err := storeFn(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := store.DeleteBefore(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}

			outputFn().Notify("Deleted %d failures", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "Age of failures to delete")

	return cmd
}
