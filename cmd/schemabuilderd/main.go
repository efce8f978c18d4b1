package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-formbuilder/internal/server"
	"github.com/goliatone/go-formbuilder/internal/store/sqlite"
	"github.com/goliatone/go-formbuilder/pkg/registry"
)

func main() {
	addr := flag.String("addr", envOr("ADDR", ":8080"), "listen address")
	dsn := flag.String("db", envOr("DATABASE_URL", "file:drafts.db"), "sqlite DSN of the draft store")
	registryURL := flag.String("registry", os.Getenv("REGISTRY_URL"), "schema registry base URL; publishing is disabled when empty")
	municipality := flag.String("municipality", os.Getenv("MUNICIPALITY_ID"), "municipality id used for registry paths")
	token := flag.String("token", os.Getenv("REGISTRY_TOKEN"), "bearer token for the schema registry")
	timeout := flag.Duration("timeout", envDuration("REQUEST_TIMEOUT", 30*time.Second), "per-request timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(ctx, *dsn)
	if err != nil {
		log.Fatalf("opening draft store: %v", err)
	}
	defer store.Close()
	log.Println("draft store ready")

	cfg := server.Config{
		Addr:           *addr,
		Store:          store,
		RequestTimeout: *timeout,
	}
	if *registryURL != "" {
		client, err := registry.New(*registryURL, *municipality,
			registry.WithToken(*token),
			registry.WithTimeout(*timeout),
		)
		if err != nil {
			log.Fatalf("configuring registry: %v", err)
		}
		cfg.Publisher = registry.NewPublisher(client)
		log.Printf("publishing to %s as municipality %s", *registryURL, *municipality)
	}

	if err := server.Run(ctx, cfg); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, raw, err)
		return fallback
	}
	return d
}
