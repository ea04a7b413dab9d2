package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ledger-service/internal/directory"
	"ledger-service/internal/ledger"
	"ledger-service/internal/model"
	"ledger-service/internal/valuation"
	"ledger-service/pkg/config"
	"ledger-service/pkg/database"
	"ledger-service/pkg/logger"
	"ledger-service/prometheus"
)

// The valuation worker runs as its own process, pulling jobs from the
// durable queue the API enqueues into. The API never waits on it.
func main() {
	conf, err := config.Load("ledger")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName + "-worker",
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// The API migrates too; doing it here as well lets the worker
	// start first on a fresh environment.
	if err := database.MigrateModels(db,
		&model.OwnershipCreditTransaction{},
		&model.ValuationSnapshot{},
		&model.ValuationJob{},
	); err != nil {
		log.Fatal("Failed to migrate database models")
	}

	prometheus.RegisterWorkerMetrics()

	queue := valuation.NewGormQueue(db, valuation.QueueConfig{
		MaxAttempts:   conf.Queue.MaxAttempts,
		BackoffBase:   conf.Queue.BackoffBase,
		LeaseTimeout:  conf.Queue.LeaseTimeout,
		KeepCompleted: conf.Queue.KeepCompleted,
		KeepFailed:    conf.Queue.KeepFailed,
	})
	pool := valuation.NewPool(
		queue,
		directory.NewGormDirectory(db),
		ledger.NewGormStore(db),
		valuation.NewGormSnapshotStore(db),
		conf.Queue.Concurrency,
		conf.Queue.PollInterval,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info(fmt.Sprintf("Starting valuation worker pool with %d workers", conf.Queue.Concurrency))
	pool.Run(ctx)
	log.Info("Valuation worker pool stopped")
}
