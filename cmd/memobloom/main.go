package main

import (
	"os"

	"github.com/memobloom/memobloom/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
