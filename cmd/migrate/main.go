package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/gravadigital/residencia-api/internal/config"
	"github.com/gravadigital/residencia-api/internal/logger"
	"github.com/gravadigital/residencia-api/internal/storage/migrations"
	"github.com/gravadigital/residencia-api/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.LogLevel)
	logger.SetFormat(cfg.LogFormat)
	log := logger.Migration()

	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	status := flag.Bool("status", false, "List migrations and whether they have been applied")
	flag.Parse()

	log.Info("Starting migration process", "rollback", *rollback)

	db, err := postgres.Connect(cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer postgres.CloseDB(db)

	if *status {
		states, err := migrations.Status(db)
		if err != nil {
			log.Error("Failed to read migration status", "error", err)
			os.Exit(1)
		}
		for _, st := range states {
			applied := "pending"
			if st.AppliedAt != nil {
				applied = st.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%s  %-32s %s\n", st.ID, st.Name, applied)
		}
		return
	}

	if *rollback {
		log.Info("Rolling back migrations...")
		err := migrations.RollbackMigration(db)
		switch {
		case errors.Is(err, migrations.ErrNothingToRollback):
			log.Warn("Nothing to roll back")
		case err != nil:
			log.Error("Migration rollback failed", "error", err)
			os.Exit(1)
		default:
			log.Info("Migration rollback completed successfully")
		}
	} else {
		log.Info("Running migrations...")
		if err := migrations.RunMigrations(db); err != nil {
			log.Error("Migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("Migrations completed successfully")
	}

	fmt.Println("Migration process completed!")
}
