package main

import (
	"os"

	"github.com/yigit/resultsphere/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
