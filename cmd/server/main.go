package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"task-tracker/internal/api"
	"task-tracker/internal/config"
	"task-tracker/internal/storage"
	"task-tracker/pkg/eventlog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := os.Getenv("TT_CONFIG")
	if path == "" {
		path = "tt.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("open %s backend: %v", cfg.Backend, err)
	}
	defer backend.Close()

	bus := eventlog.NewBus(backend.Log)
	store := eventlog.NewRecorder(backend.Store, bus)
	srv := &http.Server{Addr: cfg.Addr, Handler: api.New(store, bus)}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("task-tracker listening on %s (backend %s)", cfg.Addr, cfg.Backend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("listen: %v", err)
	}
	log.Printf("task-tracker stopped")
}
