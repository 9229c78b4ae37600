package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// JobPublisher публикует job в очередь (mq.Publisher).
type JobPublisher interface {
	PublishJob(ctx context.Context, queue string, job any) (string, error)
}

// PublisherFunc открывает Publisher. close освобождает соединение.
type PublisherFunc func(ctx context.Context) (p JobPublisher, close func(), err error)

// NewPublishCmd создаёт команду публикации job.
func NewPublishCmd(publisherFn PublisherFunc, outputFn func() *Output) *cobra.Command {
	var jobJSON string
	var jobFile string

	cmd := &cobra.Command{
		Use:   "publish QUEUE",
		Short: "Publish a job to a task queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := readJob(jobJSON, jobFile)
			if err != nil {
				return err
			}

			publisher, closeFn, err := publisherFn(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			queue := args[0]
			id, err := publisher.PublishJob(cmd.Context(), queue, job)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Notify("Job published: %s", id)
			out.Print(
				Table{Headers: []string{"MESSAGE_ID", "QUEUE"}, Rows: [][]string{{id, queue}}},
				map[string]string{"message_id": id, "queue": queue},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&jobJSON, "job", "", "Job payload as JSON")
	cmd.Flags().StringVarP(&jobFile, "file", "f", "", "Read job payload from file")
	cmd.MarkFlagsMutuallyExclusive("job", "file")
	cmd.MarkFlagsOneRequired("job", "file")

	return cmd
}

// readJob разбирает job из строки или файла.
func readJob(jobJSON, jobFile string) (any, error) {
	data := []byte(jobJSON)
	if jobFile != "" {
		var err error
		if data, err = os.ReadFile(jobFile); err != nil {
			return nil, fmt.Errorf("read job file: %w", err)
		}
	}

	var job any
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("job is not valid JSON: %w", err)
	}
	if job == nil {
		return nil, fmt.Errorf("job must not be null")
	}
	return job, nil
}
