package migrations

import "gorm.io/gorm"

var indexes = []struct {
	name       string
	definition string
}{
	{"idx_users_role", "users(role)"},
	{"idx_users_active_role", "users(is_active, role)"},

	{"idx_residents_building_apartment", "residents(building, apartment)"},

	{"idx_complaints_status", "complaints(status)"},
	{"idx_complaints_priority", "complaints(priority)"},
	{"idx_complaints_category", "complaints(category)"},
	{"idx_complaints_building", "complaints(building)"},
	{"idx_complaints_assignee", "complaints(assignee_id)"},
	{"idx_complaints_created_at", "complaints(created_at DESC)"},

	{"idx_complaint_comments_created_at", "complaint_comments(complaint_id, created_at)"},
	{"idx_complaint_attachments_created_at", "complaint_attachments(complaint_id, created_at DESC)"},

	{"idx_notifications_user_unread", "notifications(user_id, is_read)"},
	{"idx_notifications_created_at", "notifications(user_id, created_at DESC)"},
}

// migration003Up creates performance indexes
func migration003Up(db *gorm.DB) error {
	for _, idx := range indexes {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS " + idx.name + " ON " + idx.definition).Error; err != nil {
			return err
		}
	}
	return nil
}

// migration003Down drops performance indexes
func migration003Down(db *gorm.DB) error {
	for _, idx := range indexes {
		if err := db.Exec("DROP INDEX IF EXISTS " + idx.name).Error; err != nil {
			return err
		}
	}
	return nil
}
