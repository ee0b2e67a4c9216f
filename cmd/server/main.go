// Package main implements the 1MRC event-ingestion server: a TCP service
// that accepts short-lived connections carrying either a stats read or one
// event write, and maintains running aggregates under heavy concurrency.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                Server                    │
//	├─────────────────────────────────────────┤
//	│  Wire routes:                           │
//	│    GET /stats    - aggregate snapshot   │
//	│    POST /event   - one (userId, value)  │
//	│    anything else - 404                  │
//	├─────────────────────────────────────────┤
//	│  Components:                            │
//	│    store.Store   - sharded aggregates   │
//	│    server.Server - acceptor + handlers  │
//	└─────────────────────────────────────────┘
//
// Configuration (later sources override earlier ones):
//   - Defaults: 127.0.0.1:8080
//   - --config: optional YAML file (host, port, grace_period_seconds)
//   - SERVER_HOST / SERVER_PORT environment variables
//   - --host / --port flags
//
// Example usage:
//
//	# Start with defaults
//	./server
//
//	# Bind all interfaces on port 9090
//	./server --host 0.0.0.0 --port 9090
//
//	# Submit an event
//	curl -X POST localhost:8080/event -d '{"userId":"alice","value":10}'
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Kavishankarks/1mrc/internal/config"
	"github.com/Kavishankarks/1mrc/internal/server"
	"github.com/Kavishankarks/1mrc/internal/store"
)

// logFatal is a variable to allow mocking log.Fatalf in tests.
var logFatal = log.Fatalf

func main() {
	var (
		configPath string
		host       string
		port       int
	)
	pflag.StringVar(&configPath, "config", "", "path to YAML configuration file")
	pflag.StringVar(&host, "host", "", "bind host (overrides config)")
	pflag.IntVar(&port, "port", 0, "bind port (overrides config)")
	pflag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logFatal("config: %v", err)
	}
	if host != "" {
		cfg.Host = host
	}
	if port != 0 {
		cfg.Port = port
	}

	// The single process-wide aggregate instance, injected into the server
	// rather than held as ambient global state.
	st := store.New()

	srv := server.New(server.Config{
		Addr:        cfg.Addr(),
		GracePeriod: cfg.GracePeriod(),
	}, st)

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		logFatal("start: %v", err)
	}
	log.Printf("event service ready (%d user-set shards)", store.NumShards)

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down...")
	cancel()
	srv.Stop()
	log.Println("server stopped")
}
