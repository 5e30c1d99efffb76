package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/eventsync/server/internal/infra/events"
	"github.com/eventsync/server/internal/model"
)

// Errors shared by every store implementation.
var (
	// ErrRecordNotFound is returned when a lookup matches nothing.
	ErrRecordNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when a compare-and-swap save loses to a concurrent writer.
	ErrVersionConflict = errors.New("version conflict")
)

// TeamDatabasePort defines team aggregate persistence operations.
// The aggregate carries its members, roles and tasks.
type TeamDatabasePort interface {
	// Create creates a new team.
	Create(ctx context.Context, team *model.Team) error

	// FindByID retrieves a team by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Team, error)

	// FindByIDForUpdate retrieves a team and locks its row for the enclosing transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Team, error)

	// FindByTaskID retrieves the team that owns a task.
	FindByTaskID(ctx context.Context, taskID uuid.UUID) (*model.Team, error)

	// FindActiveByEventAndMember lists active teams of an event that contain the student.
	FindActiveByEventAndMember(ctx context.Context, eventID, enrollmentNo string) ([]*model.Team, error)

	// FindByMember lists all teams containing the student.
	FindByMember(ctx context.Context, enrollmentNo string) ([]*model.Team, error)

	// Save writes the team if its stored version still equals team.Version,
	// then increments team.Version. Returns ErrVersionConflict otherwise.
	Save(ctx context.Context, team *model.Team) error
}

// InvitationDatabasePort defines team invitation persistence operations.
type InvitationDatabasePort interface {
	// Create creates a new invitation.
	Create(ctx context.Context, invitation *model.TeamInvitation) error

	// FindByID retrieves an invitation by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*model.TeamInvitation, error)

	// FindPending retrieves the pending invitation for a student on a team.
	FindPending(ctx context.Context, teamID uuid.UUID, enrollmentNo string) (*model.TeamInvitation, error)

	// FindByTeam lists invitations for a team, optionally filtered by status.
	FindByTeam(ctx context.Context, teamID uuid.UUID, status *model.InvitationStatus) ([]*model.TeamInvitation, error)

	// FindByInvitee lists invitations addressed to a student, optionally filtered by status.
	FindByInvitee(ctx context.Context, enrollmentNo string, status *model.InvitationStatus) ([]*model.TeamInvitation, error)

	// FindExpiredPending lists pending invitations whose expiry is not after now.
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*model.TeamInvitation, error)

	// Transition moves an invitation from one status to another.
	// Returns ErrVersionConflict if the stored status is no longer from.
	Transition(ctx context.Context, id uuid.UUID, from, to model.InvitationStatus, at time.Time) error

	// ExpirePendingByTeam expires every pending invitation of a team and returns how many changed.
	ExpirePendingByTeam(ctx context.Context, teamID uuid.UUID, at time.Time) (int, error)
}

// CollaborationTransactionPort defines transaction support for collaboration.
type CollaborationTransactionPort interface {
	// RunInTransaction executes the given function within a transaction.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ===== External campus services =====

// StudentProfile holds directory data used to populate member display fields.
type StudentProfile struct {
	EnrollmentNo string `json:"enrollment_no"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Department   string `json:"department"`
}

// EventTeamConfig is the team policy of an event.
type EventTeamConfig struct {
	EventID                        string `json:"event_id"`
	MinSize                        int    `json:"min_size"`
	MaxSize                        int    `json:"max_size"`
	AllowMultipleTeamRegistrations bool   `json:"allow_multiple_team_registrations"`
	RegistrationOpen               bool   `json:"registration_open"`
}

// EligibilityPort answers whether a student may join teams of an event.
type EligibilityPort interface {
	CheckEligibility(ctx context.Context, enrollmentNo, eventID string) (bool, error)
}

// StudentDirectoryPort resolves enrollment numbers to profiles.
// Returns ErrRecordNotFound when the student does not exist.
type StudentDirectoryPort interface {
	LookupStudent(ctx context.Context, enrollmentNo string) (*StudentProfile, error)
}

// EventConfigPort reads the team policy of an event.
// Returns ErrRecordNotFound when the event does not exist.
type EventConfigPort interface {
	GetEventTeamConfig(ctx context.Context, eventID string) (*EventTeamConfig, error)
}

// EventPublisherPort delivers domain events fire-and-forget.
type EventPublisherPort interface {
	Publish(ctx context.Context, event events.Event)
}
