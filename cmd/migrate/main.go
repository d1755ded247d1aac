package main

import (
	"context"
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/pageza/macrochef/backend/config"
	"github.com/pageza/macrochef/backend/internal/database"
	"github.com/pageza/macrochef/backend/internal/ledger"
	"github.com/pageza/macrochef/backend/internal/logging"
)

func main() {
	cleanup := flag.Bool("cleanup", false, "Delete ledger rows older than LEDGER_RETENTION_DAYS after migrating")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	log := logging.Component(logger, "migrate")

	db, err := database.Open(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if db == nil {
		log.WithField("backend", cfg.LedgerBackend).Fatal("LEDGER_BACKEND has no SQL database to migrate")
	}

	if err := database.RunMigrations(db, log); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	if *cleanup {
		cleaner := ledger.NewRetentionCleaner(db, cfg.LedgerRetentionDays, log)
		if cleaner == nil {
			log.Fatal("LEDGER_RETENTION_DAYS must be positive for -cleanup")
		}
		deleted := cleaner.CleanupOnce(context.Background())
		log.WithField("deleted", deleted).Info("Ledger cleanup finished")
	}
}
