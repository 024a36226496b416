package main

import (
	"os"

	"github.com/1023-Ventures/qlaunch/internal/config"
)

func main() {
	if err := newRootCmd(config.New()).Execute(); err != nil {
		os.Exit(1)
	}
}
