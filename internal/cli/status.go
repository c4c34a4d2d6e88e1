package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neuroseg/neuroseg/internal/types"
)

var (
	statusWatch    bool
	statusInterval time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show task status",
	Long:  `Show the current status of a segmentation task, optionally polling until it finishes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(GetServerURL())
		taskID := args[0]

		for {
			task, err := client.Status(taskID)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			printTask(task)

			if !statusWatch || task.Status.Terminal() {
				return nil
			}
			time.Sleep(statusInterval)
			fmt.Println()
		}
	},
}

func printTask(task *types.Task) {
	fmt.Printf("Task ID:      %s\n", task.TaskID)
	fmt.Printf("Status:       %s\n", task.Status)
	fmt.Printf("Created:      %s\n", task.CreatedAt.Format(time.RFC3339))
	if task.StartedAt != nil {
		fmt.Printf("Started:      %s\n", task.StartedAt.Format(time.RFC3339))
	}
	if task.CompletedAt != nil {
		fmt.Printf("Completed:    %s\n", task.CompletedAt.Format(time.RFC3339))
	}
	if task.Progress != "" {
		fmt.Printf("Progress:     %s\n", task.Progress)
	}
	if res, ok := task.Result.(map[string]any); ok {
		if out, ok := res["output_file"].(string); ok {
			fmt.Printf("Output file:  %s\n", out)
		}
	}
	if task.Error != "" {
		fmt.Printf("Error:        %s\n", task.Error)
		if verbose && task.ErrorTrace != "" {
			fmt.Printf("Trace:\n%s\n", task.ErrorTrace)
		}
	}
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "poll until the task reaches a terminal state")
	statusCmd.Flags().DurationVar(&statusInterval, "interval", 5*time.Second, "poll interval with --watch")
	rootCmd.AddCommand(statusCmd)
}
