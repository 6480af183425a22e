// Package main starts the stale turn sweeper process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	sweepercmd "github.com/louisbranch/turnforge/internal/cmd/sweeper"
)

func main() {
	cfg, err := sweepercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[SWEEPER] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sweepercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to sweep: %v", err)
	}
}
