// Package main provides the command line entry point for the assay engine.
// It scores batches of T21 screening records and photometric assay records
// read from YAML or JSON files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var (
	version = "v0.0.1-default"
	commit  = ""
)

func main() {
	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newApp(os.Stdout).Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "assay-engine: %v\n", err)
		os.Exit(1)
	}
}
