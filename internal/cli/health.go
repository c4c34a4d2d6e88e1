package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(GetServerURL())

		health, err := client.Health()
		if err != nil {
			return fmt.Errorf("failed to get health: %w", err)
		}

		fmt.Printf("Status:     %s\n", health.Status)
		fmt.Printf("Storage:    %s\n", health.Storage)
		fmt.Printf("Redis:      %s\n", health.Redis)
		fmt.Printf("Timestamp:  %s\n", health.Timestamp.Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
