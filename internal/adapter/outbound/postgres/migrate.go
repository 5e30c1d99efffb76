package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/eventsync/server/internal/model"
)

// indexes are created after AutoMigrate; gorm tags cannot express GIN indexes on arrays.
var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_teams_member_enrollments ON teams USING GIN (member_enrollments)`,
	`CREATE INDEX IF NOT EXISTS idx_teams_task_ids ON teams USING GIN (task_ids)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_team_invitations_pending ON team_invitations (team_id, invitee_enrollment_no) WHERE status = 'pending'`,
}

// Migrate creates or updates the collaboration schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Team{}, &model.TeamInvitation{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
