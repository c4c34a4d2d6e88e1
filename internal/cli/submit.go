package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neuroseg/neuroseg/internal/types"
)

var (
	submitSimulate bool
	submitOutput   string
)

var submitCmd = &cobra.Command{
	Use:   "submit <study-code>",
	Short: "Submit a segmentation job",
	Long:  `Submit a segmentation job for a study and print the task id to poll.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(GetServerURL())

		resp, err := client.Submit(types.SegmentationRequest{
			StudyCode:  args[0],
			Simulate:   submitSimulate,
			OutputPath: submitOutput,
		})
		if err != nil {
			return fmt.Errorf("failed to submit job: %w", err)
		}

		fmt.Printf("Task ID:  %s\n", resp.TaskID)
		fmt.Printf("Status:   %s\n", resp.Status)
		fmt.Printf("Message:  %s\n", resp.Message)
		return nil
	},
}

func init() {
	submitCmd.Flags().BoolVar(&submitSimulate, "simulate", false, "run a simulated segmentation")
	submitCmd.Flags().StringVar(&submitOutput, "output", "", "output file path (server-side)")
	rootCmd.AddCommand(submitCmd)
}
