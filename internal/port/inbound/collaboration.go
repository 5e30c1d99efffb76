package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eventsync/server/internal/model"
)

// --- Request/Response Types ---

// CreateTeamInput represents a request to create a team.
type CreateTeamInput struct {
	EventID string `json:"event_id" binding:"required,max=100"`
	Name    string `json:"name" binding:"required,min=1,max=100"`
}

// AddMemberInput represents a request to add a member.
type AddMemberInput struct {
	EnrollmentNo string `json:"enrollment_no" binding:"required"`
}

// AddMemberResult is either a member added directly or a pending invitation.
type AddMemberResult struct {
	Member     *model.TeamMember     `json:"member,omitempty"`
	Invitation *model.TeamInvitation `json:"invitation,omitempty"`
}

// IsInvitation reports whether the add produced an invitation.
func (r *AddMemberResult) IsInvitation() bool {
	return r.Invitation != nil
}

// RoleInput represents a role assignment request.
type RoleInput struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"max=500"`
	Permissions []string `json:"permissions"`
}

// CreateTaskInput represents a request to create a task.
type CreateTaskInput struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=5000"`
	Category    string     `json:"category" binding:"max=100"`
	Priority    string     `json:"priority"`
	AssignedTo  []string   `json:"assigned_to" binding:"required"`
	Deadline    *time.Time `json:"deadline"`
}

// SubmitTaskInput represents a task submission.
type SubmitTaskInput struct {
	Link  string `json:"link"`
	Notes string `json:"notes" binding:"max=5000"`
}

// ReviewTaskInput represents a review decision.
type ReviewTaskInput struct {
	Decision string `json:"decision" binding:"required"`
	Notes    string `json:"notes" binding:"max=5000"`
}

// MemberView is a member together with its effective role.
type MemberView struct {
	model.TeamMember
	Role     model.TeamRoleAssignment `json:"role"`
	IsLeader bool                     `json:"is_leader"`
}

// TeamView is the read projection of a team.
type TeamView struct {
	ID             uuid.UUID            `json:"id"`
	EventID        string               `json:"event_id"`
	Name           string               `json:"name"`
	Status         model.TeamStatus     `json:"status"`
	MinSize        int                  `json:"min_size"`
	MaxSize        int                  `json:"max_size"`
	MembershipMode model.MembershipMode `json:"membership_mode"`
	LeaderID       string               `json:"leader_id"`
	Members        []MemberView         `json:"members"`
	TaskCount      int                  `json:"task_count"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	CancelledAt    *time.Time           `json:"cancelled_at,omitempty"`
}

// --- Domain Interface ---

// CollaborationDomain defines team collaboration operations.
// Actors are identified by enrollment number.
type CollaborationDomain interface {
	// Team registry
	CreateTeam(ctx context.Context, requesterID string, in *CreateTeamInput) (*TeamView, error)
	GetTeam(ctx context.Context, teamID uuid.UUID) (*TeamView, error)
	ListTeamsForStudent(ctx context.Context, enrollmentNo string) ([]*TeamView, error)
	AddMember(ctx context.Context, teamID uuid.UUID, enrollmentNo, requesterID string) (*AddMemberResult, error)
	RemoveMember(ctx context.Context, teamID uuid.UUID, enrollmentNo, requesterID string) error
	CancelTeam(ctx context.Context, teamID uuid.UUID, requesterID string) error

	// Invitations
	AcceptInvitation(ctx context.Context, invitationID uuid.UUID, actorID string) (*model.TeamMember, error)
	DeclineInvitation(ctx context.Context, invitationID uuid.UUID, actorID string) error
	ListTeamInvitations(ctx context.Context, teamID uuid.UUID, requesterID string) ([]*model.TeamInvitation, error)
	ListMyInvitations(ctx context.Context, enrollmentNo string) ([]*model.TeamInvitation, error)
	ExpireInvitations(ctx context.Context, now time.Time) (int, error)

	// Roles
	AssignRole(ctx context.Context, teamID uuid.UUID, enrollmentNo string, in *RoleInput, requesterID string) (*model.TeamRoleAssignment, error)
	GetRole(ctx context.Context, teamID uuid.UUID, enrollmentNo string) (*model.TeamRoleAssignment, error)
	ListRoles(ctx context.Context, teamID uuid.UUID) ([]*model.TeamRoleAssignment, error)

	// Tasks
	CreateTask(ctx context.Context, teamID uuid.UUID, in *CreateTaskInput, requesterID string) (*model.Task, error)
	GetTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error)
	ListTasks(ctx context.Context, teamID uuid.UUID) ([]*model.Task, error)
	GetTasksForMember(ctx context.Context, teamID uuid.UUID, enrollmentNo string) ([]*model.Task, error)
	StartWork(ctx context.Context, taskID uuid.UUID, actorID string) (*model.Task, error)
	Submit(ctx context.Context, taskID uuid.UUID, actorID string, in *SubmitTaskInput) (*model.Task, error)
	Review(ctx context.Context, taskID uuid.UUID, reviewerID string, in *ReviewTaskInput) (*model.Task, error)
	QuickApprove(ctx context.Context, taskID uuid.UUID, reviewerID, notes string) (*model.Task, error)
}
