// Package app wires configuration into repositories, usecases and the
// event notifier. Both binaries build the same graph.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	repo "sfd-loan-engine/internal/adapter/repository/mysql"
	"sfd-loan-engine/internal/config"
	"sfd-loan-engine/internal/domain/amortization"
	"sfd-loan-engine/internal/infrastructure/cache"
	"sfd-loan-engine/internal/infrastructure/db"
	"sfd-loan-engine/internal/logger"
	"sfd-loan-engine/internal/notifier"
	loanuc "sfd-loan-engine/internal/usecase/loan"
	paymentuc "sfd-loan-engine/internal/usecase/payment"
	reminderuc "sfd-loan-engine/internal/usecase/reminder"
	subsidyuc "sfd-loan-engine/internal/usecase/subsidy"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *gorm.DB
	Redis  *redis.Client

	Hub      *notifier.Hub
	Notifier *notifier.Notifier
	bridge   *notifier.RedisBridge
	kafka    *notifier.KafkaSink
	headless bool

	Loans     *loanuc.Usecase
	Payments  *paymentuc.Usecase
	Reminders *reminderuc.Usecase
	Subsidies *subsidyuc.Usecase
	Sweeper   *reminderuc.Sweeper
}

type Option func(*App)

// Headless marks a process that serves no event subscribers of its own, such
// as the sweeper. Its events always go through Redis so API replicas relay
// them to their hubs.
func Headless() Option { return func(a *App) { a.headless = true } }

// New connects to the database and Redis and assembles the app on top.
func New(cfg *config.Config, log *slog.Logger, opts ...Option) (*App, error) {
	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), logger.GormLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		if sqlDB, dbErr := gdb.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("open redis: %w", err)
	}
	return Assemble(cfg, log, gdb, rdb, opts...)
}

// Assemble migrates the schema and builds the notifier and usecases over
// already opened connections. The app owns the connections afterwards.
func Assemble(cfg *config.Config, log *slog.Logger, gdb *gorm.DB, rdb *redis.Client, opts ...Option) (*App, error) {
	a := &App{Config: cfg, Logger: log, DB: gdb, Redis: rdb}
	for _, o := range opts {
		o(a)
	}
	if err := repo.AutoMigrate(gdb); err != nil {
		a.Close(time.Second)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := a.buildNotifier(); err != nil {
		a.Close(time.Second)
		return nil, err
	}
	a.buildUsecases()
	return a, nil
}

func (a *App) buildNotifier() error {
	cfg := a.Config
	a.Hub = notifier.NewHub(cfg.NotifierSubscriberBuffer)

	// The hub always relays Redis traffic, which carries at least the
	// headless processes' events. NOTIFIER_REDIS_BRIDGE routes this
	// process's own events through Redis too so every replica sees them.
	a.bridge = notifier.NewRedisBridge(a.Redis, a.Hub, a.Logger)
	var sinks []notifier.Sink
	if a.headless || cfg.NotifierRedisBridge {
		sinks = append(sinks, a.bridge)
	} else {
		sinks = append(sinks, a.Hub)
	}
	if cfg.KafkaBrokers != "" {
		k, err := notifier.NewKafkaSink(a.Logger, cfg.KafkaBrokers, cfg.KafkaLoanEventsTopic, 10*time.Second)
		if err != nil {
			return err
		}
		a.kafka = k
		sinks = append(sinks, k)
	}
	n, err := notifier.New(a.Logger, notifier.Config{PoolSize: cfg.NotifierPoolSize}, sinks...)
	if err != nil {
		return fmt.Errorf("notifier pool: %w", err)
	}
	a.Notifier = n
	return nil
}

func (a *App) buildUsecases() {
	cfg := a.Config
	tx := repo.NewGormUoW(a.DB)
	loans := repo.NewLoanRepository(a.DB)
	activities := repo.NewActivityRepository(a.DB)
	subsidies := repo.NewSubsidyRepository(a.DB)
	payments := repo.NewPaymentRepository(a.DB)
	sets := repo.NewSettingsRepository(a.DB, cfg.SettingsDefaults())

	a.Loans = loanuc.NewUsecase(tx, loans, activities, sets, amortization.NewCalculator(cfg.CurrencyScale),
		loanuc.WithPublisher(a.Notifier), loanuc.WithLogger(a.Logger))
	a.Payments = paymentuc.NewUsecase(tx, payments, loans, sets,
		paymentuc.WithPublisher(a.Notifier), paymentuc.WithLogger(a.Logger), paymentuc.WithTolerance(cfg.PaymentTolerance))
	a.Reminders = reminderuc.NewUsecase(tx, loans, activities,
		reminderuc.WithWindow(cfg.ReminderWindow), reminderuc.WithLogger(a.Logger))
	a.Subsidies = subsidyuc.NewUsecase(tx, subsidies, subsidyuc.WithLogger(a.Logger))
	a.Sweeper = reminderuc.NewSweeper(a.Reminders, a.Payments, a.Subsidies, cfg.ReservationTTL, a.Logger)
}

// RunBridge relays events published through Redis into the local hub until
// ctx ends. ready, when non-nil, is closed once the subscription is live.
func (a *App) RunBridge(ctx context.Context, ready chan<- struct{}) error {
	err := a.bridge.Run(ctx, ready)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close drains the notifier and closes the connections.
func (a *App) Close(timeout time.Duration) {
	if a.Notifier != nil {
		if err := a.Notifier.Close(timeout); err != nil {
			a.Logger.Warn("notifier did not drain", "error", err)
		}
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.Logger.Warn("kafka close", "error", err)
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
