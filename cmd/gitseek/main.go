package main

import (
	"os"

	"github.com/gitseek/gitseek-cli/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
