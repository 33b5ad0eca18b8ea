package main

import (
	"os"

	"cryptoquotes/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func run() int {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
