package migrations

import "gorm.io/gorm"

var updatedAtTables = []string{"users", "residents", "complaints"}

// migration004Up keeps updated_at current for writes that bypass GORM
func migration004Up(db *gorm.DB) error {
	if err := db.Exec(`
        CREATE OR REPLACE FUNCTION set_updated_at()
        RETURNS TRIGGER AS $$
        BEGIN
            NEW.updated_at = CURRENT_TIMESTAMP;
            RETURN NEW;
        END;
        $$ LANGUAGE plpgsql`).Error; err != nil {
		return err
	}

	for _, table := range updatedAtTables {
		if err := db.Exec("DROP TRIGGER IF EXISTS trg_" + table + "_updated_at ON " + table).Error; err != nil {
			return err
		}
		if err := db.Exec(`
        CREATE TRIGGER trg_` + table + `_updated_at
            BEFORE UPDATE ON ` + table + `
            FOR EACH ROW EXECUTE FUNCTION set_updated_at()`).Error; err != nil {
			return err
		}
	}

	// a resolved complaint always carries resolved_at and no other status does
	return db.Exec(`
        DO $$ BEGIN
            ALTER TABLE complaints ADD CONSTRAINT chk_complaints_resolved_at
                CHECK ((status = 'RESOLVED') = (resolved_at IS NOT NULL));
        EXCEPTION
            WHEN duplicate_object THEN NULL;
        END $$`).Error
}

// migration004Down drops triggers and constraints
func migration004Down(db *gorm.DB) error {
	if err := db.Exec("ALTER TABLE complaints DROP CONSTRAINT IF EXISTS chk_complaints_resolved_at").Error; err != nil {
		return err
	}
	for _, table := range updatedAtTables {
		if err := db.Exec("DROP TRIGGER IF EXISTS trg_" + table + "_updated_at ON " + table).Error; err != nil {
			return err
		}
	}
	return db.Exec("DROP FUNCTION IF EXISTS set_updated_at()").Error
}
