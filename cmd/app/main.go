package main

import (
	"log"
	"os"

	"StockBrief/internal/di"
	"StockBrief/pkg/config"
)

func main() {
	// Load config: defaults, config/config.yaml, .env, environment
	cfg, err := config.LoadWithEnv()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	defer cleanup()

	log.Printf("stockbrief: report at %s (%s), run immediately=%v", cfg.Schedule.At, cfg.Schedule.Timezone, cfg.Schedule.RunImmediately)

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		cleanup()
		os.Exit(1)
	}
}
