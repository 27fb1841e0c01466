package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpadp "sfd-loan-engine/internal/adapter/http"
	mw "sfd-loan-engine/internal/adapter/middleware"
	"sfd-loan-engine/internal/app"
	"sfd-loan-engine/internal/config"
	"sfd-loan-engine/internal/infrastructure/cache"
	"sfd-loan-engine/internal/logger"
)

func main() {
	cfg, err := config.Load(configName())
	if err != nil {
		panic(err)
	}
	log := logger.New("sfd-loan-api", cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close(cfg.ShutdownTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := a.RunBridge(ctx, nil); err != nil {
			log.Error("event bridge stopped", "error", err)
		}
	}()

	sqlDB, err := a.DB.DB()
	if err != nil {
		log.Error("database handle", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover(), mw.Metrics())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	httpadp.Register(e, httpadp.Handlers{
		Health: httpadp.NewHandler(map[string]httpadp.Check{
			"db":    sqlDB.PingContext,
			"redis": cache.Check(a.Redis),
		}),
		Loans:    httpadp.NewLoanHandler(a.Loans),
		Payments: httpadp.NewPaymentHandler(a.Payments),
		Reminder: httpadp.NewReminderHandler(a.Reminders),
		Subsidy:  httpadp.NewSubsidyHandler(a.Subsidies),
		Stream:   httpadp.NewStreamHandler(a.Hub, log),
	}, mw.IdempotencyMiddleware(a.Redis, cfg.IdempotencyTTL(), log))

	go func() {
		addr := ":" + cfg.AppPort
		log.Info("listening", "addr", addr, "db_driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
}

// configName selects configs/<name>.env; environment variables override it.
func configName() string {
	if name := os.Getenv("CONFIG_NAME"); name != "" {
		return name
	}
	return "app"
}
