package main

import (
	"fmt"
	"os"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/bootstrap"
)

var version = "dev"

func main() {
	if err := bootstrap.Start(version); err != nil {
		fmt.Fprintf(os.Stderr, "media-monitor: %v\n", err)
		os.Exit(1)
	}
}
