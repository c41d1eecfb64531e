package migrations

import (
	"github.com/gravadigital/residencia-api/internal/domain/complaint"
	"github.com/gravadigital/residencia-api/internal/domain/notification"
	"github.com/gravadigital/residencia-api/internal/domain/resident"
	"github.com/gravadigital/residencia-api/internal/domain/user"
)

// AllModels returns the persisted models in dependency order
func AllModels() []any {
	return []any{
		&user.User{},
		&resident.Resident{},
		&complaint.Complaint{},
		&complaint.Comment{},
		&complaint.Attachment{},
		&notification.Notification{},
	}
}
