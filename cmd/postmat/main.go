package main

import (
	"os"

	"github.com/postmat-dev/postmat/internal/cli"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
