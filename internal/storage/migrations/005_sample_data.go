package migrations

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	sampleAdminID    = "550e8400-e29b-41d4-a716-446655440000"
	sampleManagerID  = "550e8400-e29b-41d4-a716-446655440001"
	sampleResidentID = "550e8400-e29b-41d4-a716-446655440002"
)

var sampleUsers = []struct {
	id       string
	email    string
	password string
	role     string
}{
	{sampleAdminID, "admin@abc-apartment.com", "admin123", "ADMIN"},
	{sampleManagerID, "manager@abc-apartment.com", "manager123", "MANAGER"},
	{sampleResidentID, "resident@example.com", "resident123", "RESIDENT"},
}

// migration005Up inserts sample data for testing and development
func migration005Up(db *gorm.DB) error {
	for _, u := range sampleUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := db.Exec(`
            INSERT INTO users (id, email, password, role, is_active) VALUES (?, ?, ?, ?, TRUE)
            ON CONFLICT (email) DO NOTHING`,
			u.id, u.email, string(hash), u.role).Error; err != nil {
			return err
		}
	}

	residentSQL := `
        INSERT INTO residents (id, user_id, first_name, last_name, phone, apartment, floor, building, move_in_date, is_owner, family_members) VALUES
            ('660e8400-e29b-41d4-a716-446655440000', ?, 'John', 'Doe', '+84901234567', 'A101', 1, 'Building A', '2023-01-01 00:00:00+00', TRUE, '{"Jane Doe"}')
        ON CONFLICT (user_id) DO NOTHING
    `
	if err := db.Exec(residentSQL, sampleResidentID).Error; err != nil {
		return err
	}

	complaintsSQL := `
        INSERT INTO complaints (id, title, description, category, priority, status, author_id, assignee_id, apartment, building) VALUES
            ('770e8400-e29b-41d4-a716-446655440000',
             'Water leak in bathroom',
             'There is a water leak in the bathroom that needs immediate attention. Water is dripping from the ceiling.',
             'MAINTENANCE', 'HIGH', 'PENDING', @resident, NULL, 'A101', 'Building A'),
            ('770e8400-e29b-41d4-a716-446655440001',
             'Noisy neighbors',
             'The neighbors above are making loud noises late at night, disturbing our sleep.',
             'NOISE', 'MEDIUM', 'IN_PROGRESS', @resident, @manager, 'A101', 'Building A')
        ON CONFLICT (id) DO NOTHING
    `
	if err := db.Exec(complaintsSQL, map[string]any{
		"resident": sampleResidentID,
		"manager":  sampleManagerID,
	}).Error; err != nil {
		return err
	}

	notificationsSQL := `
        INSERT INTO notifications (id, user_id, title, message, type) VALUES
            ('880e8400-e29b-41d4-a716-446655440000', ?, 'Welcome to ABC Apartment',
             'Welcome to our resident management system. You can now submit complaints and track their status.', 'GENERAL'),
            ('880e8400-e29b-41d4-a716-446655440001', ?, 'New Complaint Assigned',
             'A new complaint has been assigned to you for review.', 'COMPLAINT_CREATED')
        ON CONFLICT (id) DO NOTHING
    `
	return db.Exec(notificationsSQL, sampleResidentID, sampleManagerID).Error
}

// migration005Down removes sample data
func migration005Down(db *gorm.DB) error {
	queries := []string{
		"DELETE FROM notifications WHERE id IN ('880e8400-e29b-41d4-a716-446655440000', '880e8400-e29b-41d4-a716-446655440001')",
		"DELETE FROM complaints WHERE id IN ('770e8400-e29b-41d4-a716-446655440000', '770e8400-e29b-41d4-a716-446655440001')",
		"DELETE FROM residents WHERE id = '660e8400-e29b-41d4-a716-446655440000'",
		"DELETE FROM users WHERE email IN ('admin@abc-apartment.com', 'manager@abc-apartment.com', 'resident@example.com')",
	}

	for _, query := range queries {
		if err := db.Exec(query).Error; err != nil {
			return err
		}
	}

	return nil
}
