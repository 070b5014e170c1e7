package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"mediapress/internal/api"
	"mediapress/internal/config"
	"mediapress/internal/hub"
	"mediapress/internal/jobs"
	"mediapress/internal/metrics"
	"mediapress/internal/pipeline"
	"mediapress/internal/server"
	"mediapress/internal/storage"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	if err := server.PrepareFilesystem(cfg); err != nil {
		log.Fatalf(">>> ❌ Error preparing filesystem: %v", err)
	}

	registry := jobs.NewRegistry()
	notifier := hub.New(registry)
	met := metrics.New(prometheus.DefaultRegisterer)

	publisher, err := storage.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf(">>> ❌ Error creating %s storage: %v", cfg.StorageBackend, err)
	}

	orchestrator := pipeline.New(cfg, registry, notifier, publisher, met)
	handler := api.NewHandler(cfg, registry, notifier, orchestrator)
	router := api.NewRouter(handler)

	jobs.NewJanitor(cfg, registry).Start()

	fmt.Println(">>> 🏭 Mediapress Server Started")
	fmt.Printf(">>> ⚡ Port: %s\n", cfg.Port)
	fmt.Printf(">>> 📦 Storage: %s\n", cfg.StorageBackend)

	log.Fatal(http.ListenAndServe(cfg.Port, router))
}
