// Fieldsync - offline-first data capture and sync for mobile patrol
// workforces.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/guardpost/fieldsync/internal/cli"
	"github.com/guardpost/fieldsync/internal/config"
	"github.com/guardpost/fieldsync/internal/log"
	"github.com/guardpost/fieldsync/internal/telemetry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	if err := log.Init(config.GetPaths(cfg).Logs); err != nil {
		os.Exit(1)
	}

	telemetryClient := telemetry.New(nil)
	defer telemetryClient.Close()

	if err := cli.Execute(ctx, telemetryClient); err != nil {
		os.Exit(1)
	}
}
