package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "neuroctl",
	Short: "neuroctl - client for the neuroseg segmentation service",
	Long: `neuroctl submits brain-MRI segmentation jobs to a running neuroseg
server and polls their status until they finish.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "neuroseg server URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() {
	if env := os.Getenv("NEUROSEG_SERVER_URL"); env != "" && serverURL == "http://localhost:8080" {
		serverURL = env
	}
}

// GetServerURL returns the configured server URL
func GetServerURL() string {
	return serverURL
}
