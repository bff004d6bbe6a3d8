package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "embed"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tigerroll/flightprep/internal/app"
	"github.com/tigerroll/flightprep/internal/logger"
)

// embeddedConfig embeds the application's YAML configuration defaults.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <job> [key=value...] [args...]\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "jobs: bts, states, features, join, registry, profile")
}

// main runs one pipeline job to completion.
func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	jobName := os.Args[1]
	jobArgs := os.Args[2:]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the job...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	if err := app.RunApplication(ctx, envFilePath, embeddedConfig, jobName, jobArgs); err != nil {
		os.Exit(1)
	}
}
