package main

import (
	"flag"
	"log"

	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/postgres"
	"github.com/masseurmatch/masseurmatch/migrations"
	"github.com/pressly/goose/v3"
)

func main() {
	command := flag.String("command", "up", "goose command: up, down, status or version")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatalw("Failed to set goose dialect", "error", err)
	}

	current, err := goose.GetDBVersion(db.DB.DB)
	if err != nil {
		logger.Fatalw("Failed to read migration version", "error", err)
	}
	logger.Infow("current migration status", "version", current, "command", *command)

	switch *command {
	case "up":
		err = goose.Up(db.DB.DB, migrations.Dir)
	case "down":
		err = goose.Down(db.DB.DB, migrations.Dir)
	case "status":
		err = goose.Status(db.DB.DB, migrations.Dir)
	case "version":
		return
	default:
		logger.Fatalw("Unknown migrate command", "command", *command)
	}
	if err != nil {
		logger.Fatalw("Migration failed", "error", err, "command", *command)
	}

	final, err := goose.GetDBVersion(db.DB.DB)
	if err != nil {
		logger.Fatalw("Failed to read migration version", "error", err)
	}
	logger.Infow("migration completed successfully", "from_version", current, "to_version", final)
}
