package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TeamStatus represents the status of a team.
type TeamStatus string

const (
	TeamStatusActive    TeamStatus = "active"
	TeamStatusCancelled TeamStatus = "cancelled"
)

// MembershipMode decides how AddMember admits a student. It is fixed at team creation.
type MembershipMode string

const (
	// MembershipModeDirect adds members immediately; a student belongs to at most one team per event.
	MembershipModeDirect MembershipMode = "direct"
	// MembershipModeInvitational creates a pending invitation the student must accept.
	MembershipModeInvitational MembershipMode = "invitational"
)

// InvitationStatus represents the status of an invitation.
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
	InvitationStatusExpired  InvitationStatus = "expired"
)

// IsTerminal reports whether no further transition is possible.
func (s InvitationStatus) IsTerminal() bool {
	return s != InvitationStatusPending
}

// Permission is a capability tag carried by a role.
type Permission string

const (
	PermissionManageTeam  Permission = "manage_team"
	PermissionAssignTasks Permission = "assign_tasks"
	PermissionAssignRoles Permission = "assign_roles"
)

// IsValid checks if the permission is known.
func (p Permission) IsValid() bool {
	switch p {
	case PermissionManageTeam, PermissionAssignTasks, PermissionAssignRoles:
		return true
	default:
		return false
	}
}

// AllPermissions returns every capability tag.
func AllPermissions() []Permission {
	return []Permission{PermissionManageTeam, PermissionAssignTasks, PermissionAssignRoles}
}

// Team is the team aggregate: members, roles and tasks are stored inside the team row.
type Team struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	EventID        string         `json:"event_id" gorm:"not null;index"`
	Name           string         `json:"name" gorm:"not null"`
	Status         TeamStatus     `json:"status" gorm:"not null;default:active"`
	MinSize        int            `json:"min_size" gorm:"not null"`
	MaxSize        int            `json:"max_size" gorm:"not null"`
	MembershipMode MembershipMode `json:"membership_mode" gorm:"not null"`
	LeaderID       string         `json:"leader_id" gorm:"not null"`

	Members []TeamMember         `json:"members" gorm:"type:jsonb;serializer:json"`
	Roles   []TeamRoleAssignment `json:"roles" gorm:"type:jsonb;serializer:json"`
	Tasks   []Task               `json:"tasks" gorm:"type:jsonb;serializer:json"`

	// Lookup indexes kept in sync with Members and Tasks.
	MemberEnrollments pq.StringArray `json:"-" gorm:"type:text[]"`
	TaskIDs           pq.StringArray `json:"-" gorm:"type:text[]"`

	Version     int64      `json:"version" gorm:"not null;default:0"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// TableName returns the database table name.
func (Team) TableName() string {
	return "teams"
}

// IsActive returns true if the team is active.
func (t *Team) IsActive() bool {
	return t.Status == TeamStatusActive
}

// IsLeader reports whether enrollmentNo leads the team.
func (t *Team) IsLeader(enrollmentNo string) bool {
	return t.LeaderID == enrollmentNo
}

// FindMember returns the member with the given enrollment number.
func (t *Team) FindMember(enrollmentNo string) (*TeamMember, bool) {
	for i := range t.Members {
		if t.Members[i].EnrollmentNo == enrollmentNo {
			return &t.Members[i], true
		}
	}
	return nil, false
}

// HasMember reports whether enrollmentNo is a member.
func (t *Team) HasMember(enrollmentNo string) bool {
	_, ok := t.FindMember(enrollmentNo)
	return ok
}

// FindRole returns the explicit role of a member.
func (t *Team) FindRole(enrollmentNo string) (*TeamRoleAssignment, bool) {
	for i := range t.Roles {
		if t.Roles[i].EnrollmentNo == enrollmentNo {
			return &t.Roles[i], true
		}
	}
	return nil, false
}

// FindTask returns the task with the given id.
func (t *Team) FindTask(taskID uuid.UUID) (*Task, bool) {
	for i := range t.Tasks {
		if t.Tasks[i].ID == taskID {
			return &t.Tasks[i], true
		}
	}
	return nil, false
}

// SyncIndexes rebuilds MemberEnrollments and TaskIDs from the embedded collections.
func (t *Team) SyncIndexes() {
	t.MemberEnrollments = make(pq.StringArray, 0, len(t.Members))
	for _, m := range t.Members {
		t.MemberEnrollments = append(t.MemberEnrollments, m.EnrollmentNo)
	}
	t.TaskIDs = make(pq.StringArray, 0, len(t.Tasks))
	for _, task := range t.Tasks {
		t.TaskIDs = append(t.TaskIDs, task.ID.String())
	}
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (t *Team) Clone() *Team {
	cp := *t
	cp.Members = append([]TeamMember(nil), t.Members...)
	cp.Roles = make([]TeamRoleAssignment, len(t.Roles))
	for i, r := range t.Roles {
		cp.Roles[i] = r
		cp.Roles[i].Permissions = append([]Permission(nil), r.Permissions...)
	}
	cp.Tasks = make([]Task, len(t.Tasks))
	for i := range t.Tasks {
		cp.Tasks[i] = *t.Tasks[i].Clone()
	}
	cp.MemberEnrollments = append(pq.StringArray(nil), t.MemberEnrollments...)
	cp.TaskIDs = append(pq.StringArray(nil), t.TaskIDs...)
	if t.CancelledAt != nil {
		at := *t.CancelledAt
		cp.CancelledAt = &at
	}
	return &cp
}

// TeamMember is a student belonging to a team.
type TeamMember struct {
	EnrollmentNo string    `json:"enrollment_no"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Department   string    `json:"department,omitempty"`
	JoinedAt     time.Time `json:"joined_at"`
}

// TeamRoleAssignment binds a role to one member of a team.
type TeamRoleAssignment struct {
	EnrollmentNo string       `json:"enrollment_no"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Permissions  []Permission `json:"permissions"`
	AssignedBy   string       `json:"assigned_by,omitempty"`
	AssignedAt   *time.Time   `json:"assigned_at,omitempty"`
	// Implicit is set on computed default roles; it is never stored.
	Implicit bool `json:"implicit,omitempty"`
}

// Has reports whether the role grants perm.
func (r *TeamRoleAssignment) Has(perm Permission) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// TeamInvitation is a deferred membership offer.
type TeamInvitation struct {
	ID                  uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	TeamID              uuid.UUID        `json:"team_id" gorm:"type:uuid;not null;index"`
	EventID             string           `json:"event_id" gorm:"not null"`
	InviteeEnrollmentNo string           `json:"invitee_enrollment_no" gorm:"not null;index"`
	InviteeName         string           `json:"invitee_name,omitempty"`
	InviteeEmail        string           `json:"invitee_email,omitempty"`
	InviteeDepartment   string           `json:"invitee_department,omitempty"`
	InvitedBy           string           `json:"invited_by" gorm:"not null"`
	Status              InvitationStatus `json:"status" gorm:"not null;default:pending;index"`
	ExpiresAt           time.Time        `json:"expires_at" gorm:"not null"`
	CreatedAt           time.Time        `json:"created_at"`
	RespondedAt         *time.Time       `json:"responded_at,omitempty"`
}

// TableName returns the database table name.
func (TeamInvitation) TableName() string {
	return "team_invitations"
}

// IsExpired reports whether a pending invitation has lapsed at now.
func (i *TeamInvitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Member returns the member record an accepted invitation produces.
func (i *TeamInvitation) Member(joinedAt time.Time) TeamMember {
	return TeamMember{
		EnrollmentNo: i.InviteeEnrollmentNo,
		Name:         i.InviteeName,
		Email:        i.InviteeEmail,
		Department:   i.InviteeDepartment,
		JoinedAt:     joinedAt,
	}
}
