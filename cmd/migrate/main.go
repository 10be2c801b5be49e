package main

import (
	"os"

	"pomotodo/internal/config"
	"pomotodo/internal/db"
	"pomotodo/internal/logging"
)

func main() {
	cfg, err := config.Load()
	logger := logging.NewText(os.Stderr, cfg.LogLevel)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database, db.MigrationSource(cfg.MigrationsDir)); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	logger.Info("migrations applied successfully", "db", cfg.DBPath)
}
