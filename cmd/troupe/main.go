package main

import (
	"os"

	"github.com/troupekit/troupe/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
