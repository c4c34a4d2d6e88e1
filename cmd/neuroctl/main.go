package main

import (
	"os"

	"github.com/neuroseg/neuroseg/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
