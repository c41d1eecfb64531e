package migrations

import "gorm.io/gorm"

var enumTypes = []struct {
	name   string
	values string
}{
	{"user_role", "'RESIDENT', 'MANAGER', 'ADMIN'"},
	{"complaint_status", "'PENDING', 'IN_PROGRESS', 'RESOLVED', 'CLOSED'"},
	{"complaint_priority", "'LOW', 'MEDIUM', 'HIGH', 'URGENT'"},
	{"complaint_category", "'MAINTENANCE', 'SECURITY', 'CLEANING', 'NOISE', 'OTHER'"},
}

// migration001Up creates extensions and custom types
func migration001Up(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return err
	}

	for _, enum := range enumTypes {
		if err := db.Exec(`
        DO $$ BEGIN
            CREATE TYPE ` + enum.name + ` AS ENUM (` + enum.values + `);
        EXCEPTION
            WHEN duplicate_object THEN NULL;
        END $$`).Error; err != nil {
			return err
		}
	}

	return nil
}

// migration001Down drops custom types
func migration001Down(db *gorm.DB) error {
	for i := len(enumTypes) - 1; i >= 0; i-- {
		if err := db.Exec("DROP TYPE IF EXISTS " + enumTypes[i].name + " CASCADE").Error; err != nil {
			return err
		}
	}

	// NOTE: We don't drop the UUID extension as it might be used by other applications
	return nil
}
