package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sfd-loan-engine/internal/app"
	"sfd-loan-engine/internal/config"
	"sfd-loan-engine/internal/logger"
	"sfd-loan-engine/internal/worker"
)

func main() {
	cfg, err := config.Load(configName())
	if err != nil {
		panic(err)
	}
	log := logger.New("sfd-loan-sweeper", cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	a, err := app.New(cfg, log, app.Headless())
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close(cfg.ShutdownTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "once" {
		if !worker.NewRunner(a.Sweeper, cfg.SweepInterval, log).RunOnce(ctx) {
			os.Exit(1)
		}
		return
	}
	worker.NewRunner(a.Sweeper, cfg.SweepInterval, log).Start(ctx)
}

// configName selects configs/<name>.env; environment variables override it.
func configName() string {
	if name := os.Getenv("CONFIG_NAME"); name != "" {
		return name
	}
	return "app"
}
