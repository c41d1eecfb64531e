package migrations

import (
	"errors"
	"fmt"
	"time"

	"github.com/gravadigital/residencia-api/internal/logger"
	"gorm.io/gorm"
)

// ErrNothingToRollback is returned when schema_migrations is empty
var ErrNothingToRollback = errors.New("no migrations to rollback")

// Migration represents a database migration
type Migration struct {
	ID   string
	Name string
	Up   func(*gorm.DB) error
	Down func(*gorm.DB) error
}

// GetMigrations returns all available migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			ID:   "001",
			Name: "create_extensions_and_types",
			Up:   migration001Up,
			Down: migration001Down,
		},
		{
			ID:   "002",
			Name: "create_core_tables",
			Up:   migration002Up,
			Down: migration002Down,
		},
		{
			ID:   "003",
			Name: "create_indexes",
			Up:   migration003Up,
			Down: migration003Down,
		},
		{
			ID:   "004",
			Name: "create_updated_at_triggers",
			Up:   migration004Up,
			Down: migration004Down,
		},
		{
			ID:   "005",
			Name: "insert_sample_data",
			Up:   migration005Up,
			Down: migration005Down,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(db *gorm.DB) error {
	log := logger.Migration()

	if err := createMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, migration := range GetMigrations() {
		if _, ok := applied[migration.ID]; ok {
			log.Debug("Migration already applied, skipping", "id", migration.ID, "name", migration.Name)
			continue
		}

		log.Info("Running migration", "id", migration.ID, "name", migration.Name)

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return fmt.Errorf("failed to run migration %s: %w", migration.ID, err)
			}

			return recordMigration(tx, migration.ID, migration.Name)
		})
		if err != nil {
			return err
		}

		log.Info("Successfully applied migration", "id", migration.ID)
	}

	log.Info("All migrations completed successfully")
	return nil
}

// createMigrationsTable creates the migrations tracking table
func createMigrationsTable(db *gorm.DB) error {
	return db.Exec(`
        CREATE TABLE IF NOT EXISTS schema_migrations (
            id VARCHAR(10) PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )
    `).Error
}

// appliedMigrations returns the applied_at of every recorded migration by id
func appliedMigrations(db *gorm.DB) (map[string]time.Time, error) {
	var rows []struct {
		ID        string
		AppliedAt time.Time
	}
	if err := db.Raw("SELECT id, applied_at FROM schema_migrations").Scan(&rows).Error; err != nil {
		return nil, err
	}

	applied := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		applied[r.ID] = r.AppliedAt
	}
	return applied, nil
}

// State describes one known migration and whether it has been applied
type State struct {
	ID        string
	Name      string
	AppliedAt *time.Time
}

// Status lists every known migration in order with its applied time
func Status(db *gorm.DB) ([]State, error) {
	if err := createMigrationsTable(db); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	applied, err := appliedMigrations(db)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}

	var states []State
	for _, m := range GetMigrations() {
		st := State{ID: m.ID, Name: m.Name}
		if at, ok := applied[m.ID]; ok {
			st.AppliedAt = &at
		}
		states = append(states, st)
	}
	return states, nil
}

// recordMigration records that a migration has been applied
func recordMigration(db *gorm.DB, migrationID, name string) error {
	return db.Exec("INSERT INTO schema_migrations (id, name) VALUES (?, ?)", migrationID, name).Error
}

// RollbackMigration rolls back the last applied migration
func RollbackMigration(db *gorm.DB) error {
	log := logger.Migration()

	var lastMigration struct {
		ID   string
		Name string
	}

	err := db.Raw(`
        SELECT id, name FROM schema_migrations
        ORDER BY id DESC
        LIMIT 1
    `).Scan(&lastMigration).Error
	if err != nil {
		return fmt.Errorf("failed to get last migration: %w", err)
	}

	if lastMigration.ID == "" {
		return ErrNothingToRollback
	}

	migrations := GetMigrations()
	var targetMigration *Migration

	for i := range migrations {
		if migrations[i].ID == lastMigration.ID {
			targetMigration = &migrations[i]
			break
		}
	}

	if targetMigration == nil {
		return fmt.Errorf("migration %s not found", lastMigration.ID)
	}

	log.Info("Rolling back migration", "id", targetMigration.ID, "name", targetMigration.Name)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err = targetMigration.Down(tx); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", targetMigration.ID, err)
		}

		return tx.Exec("DELETE FROM schema_migrations WHERE id = ?", targetMigration.ID).Error
	})
	if err != nil {
		return err
	}

	log.Info("Successfully rolled back migration", "id", targetMigration.ID)
	return nil
}
