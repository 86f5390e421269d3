package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ivey1207/supperapp/internal/config"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"github.com/ivey1207/supperapp/internal/infrastructure/storage"
	"github.com/ivey1207/supperapp/internal/seed"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config.yaml")
	seedPath := flag.String("file", "config/seed.yaml", "seed file with kiosks and programs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Database.Driver == config.DriverMemory {
		log.Fatalf("seeding the memory driver has no effect; start the server with -seed instead")
	}

	file, err := seed.LoadFile(*seedPath)
	if err != nil {
		log.Fatalf("failed to read seed file: %v", err)
	}

	backend, err := storage.Open(cfg.Database, log)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer backend.Close()

	res, err := seed.Apply(context.Background(), backend.Deps.Kiosks, backend.Deps.Programs, file)
	if err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	log.Infow("seed_applied", "kiosks", res.Kiosks, "programs", res.Programs, "skipped", res.Skipped)
}
