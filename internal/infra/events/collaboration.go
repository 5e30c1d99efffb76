package events

import (
	"time"

	"github.com/google/uuid"
)

// Collaboration event types.
const (
	TeamCreatedType        = "TeamCreated"
	TeamCancelledType      = "TeamCancelled"
	MemberAddedType        = "MemberAdded"
	MemberRemovedType      = "MemberRemoved"
	InvitationSentType     = "InvitationSent"
	InvitationAcceptedType = "InvitationAccepted"
	InvitationDeclinedType = "InvitationDeclined"
	InvitationExpiredType  = "InvitationExpired"
	RoleAssignedType       = "RoleAssigned"
	TaskCreatedType        = "TaskCreated"
	TaskStartedType        = "TaskStarted"
	TaskSubmittedType      = "TaskSubmitted"
	TaskReviewedType       = "TaskReviewed"
)

// TeamCreatedEvent is emitted when a student creates a team.
type TeamCreatedEvent struct {
	BaseEvent
	EventRef string `json:"event_ref"`
	Name     string `json:"name"`
	LeaderID string `json:"leader_id"`
}

// NewTeamCreatedEvent creates a new TeamCreatedEvent.
func NewTeamCreatedEvent(teamID uuid.UUID, eventRef, name, leaderID string, at time.Time) *TeamCreatedEvent {
	return &TeamCreatedEvent{
		BaseEvent: NewBaseEvent(TeamCreatedType, teamID, at, leaderID),
		EventRef:  eventRef,
		Name:      name,
		LeaderID:  leaderID,
	}
}

// TeamCancelledEvent is emitted once when a team is cancelled.
type TeamCancelledEvent struct {
	BaseEvent
	CancelledBy    string   `json:"cancelled_by"`
	FormerMembers  []string `json:"former_members"`
	ExpiredInvites int      `json:"expired_invitations"`
}

// NewTeamCancelledEvent creates a new TeamCancelledEvent.
func NewTeamCancelledEvent(teamID uuid.UUID, cancelledBy string, formerMembers []string, expired int, at time.Time) *TeamCancelledEvent {
	return &TeamCancelledEvent{
		BaseEvent:      NewBaseEvent(TeamCancelledType, teamID, at, formerMembers...),
		CancelledBy:    cancelledBy,
		FormerMembers:  formerMembers,
		ExpiredInvites: expired,
	}
}

// MemberAddedEvent is emitted when a member joins directly or via invitation.
type MemberAddedEvent struct {
	BaseEvent
	EnrollmentNo string     `json:"enrollment_no"`
	AddedBy      string     `json:"added_by"`
	InvitationID *uuid.UUID `json:"invitation_id,omitempty"`
}

// NewMemberAddedEvent creates a new MemberAddedEvent.
func NewMemberAddedEvent(teamID uuid.UUID, enrollmentNo, addedBy string, invitationID *uuid.UUID, at time.Time) *MemberAddedEvent {
	return &MemberAddedEvent{
		BaseEvent:    NewBaseEvent(MemberAddedType, teamID, at, enrollmentNo),
		EnrollmentNo: enrollmentNo,
		AddedBy:      addedBy,
		InvitationID: invitationID,
	}
}

// MemberRemovedEvent is emitted when a member leaves or is removed.
type MemberRemovedEvent struct {
	BaseEvent
	EnrollmentNo string `json:"enrollment_no"`
	RemovedBy    string `json:"removed_by"`
}

// NewMemberRemovedEvent creates a new MemberRemovedEvent.
func NewMemberRemovedEvent(teamID uuid.UUID, enrollmentNo, removedBy string, at time.Time) *MemberRemovedEvent {
	return &MemberRemovedEvent{
		BaseEvent:    NewBaseEvent(MemberRemovedType, teamID, at, enrollmentNo),
		EnrollmentNo: enrollmentNo,
		RemovedBy:    removedBy,
	}
}

// InvitationEvent covers the invitation lifecycle (sent, accepted, declined, expired).
type InvitationEvent struct {
	BaseEvent
	InvitationID        uuid.UUID `json:"invitation_id"`
	InviteeEnrollmentNo string    `json:"invitee_enrollment_no"`
	InvitedBy           string    `json:"invited_by"`
	TeamName            string    `json:"team_name,omitempty"`
	ExpiresAt           time.Time `json:"expires_at"`
}

// NewInvitationEvent creates an invitation lifecycle event. Sent events notify the
// invitee; responses notify the inviter.
func NewInvitationEvent(eventType string, teamID, invitationID uuid.UUID, invitee, invitedBy, teamName string, expiresAt, at time.Time) *InvitationEvent {
	recipient := invitedBy
	if eventType == InvitationSentType {
		recipient = invitee
	}
	return &InvitationEvent{
		BaseEvent:           NewBaseEvent(eventType, teamID, at, recipient),
		InvitationID:        invitationID,
		InviteeEnrollmentNo: invitee,
		InvitedBy:           invitedBy,
		TeamName:            teamName,
		ExpiresAt:           expiresAt,
	}
}

// RoleAssignedEvent is emitted when a role is set on a member.
type RoleAssignedEvent struct {
	BaseEvent
	EnrollmentNo string   `json:"enrollment_no"`
	RoleName     string   `json:"role_name"`
	Permissions  []string `json:"permissions"`
	AssignedBy   string   `json:"assigned_by"`
}

// NewRoleAssignedEvent creates a new RoleAssignedEvent.
func NewRoleAssignedEvent(teamID uuid.UUID, enrollmentNo, roleName string, permissions []string, assignedBy string, at time.Time) *RoleAssignedEvent {
	return &RoleAssignedEvent{
		BaseEvent:    NewBaseEvent(RoleAssignedType, teamID, at, enrollmentNo),
		EnrollmentNo: enrollmentNo,
		RoleName:     roleName,
		Permissions:  permissions,
		AssignedBy:   assignedBy,
	}
}

// TaskEvent covers task creation, start and submission.
type TaskEvent struct {
	BaseEvent
	TaskID uuid.UUID `json:"task_id"`
	Title  string    `json:"title"`
	Actor  string    `json:"actor"`
	Status string    `json:"status"`
	Link   string    `json:"link,omitempty"`
}

// NewTaskEvent creates a task lifecycle event addressed to recipients.
func NewTaskEvent(eventType string, teamID, taskID uuid.UUID, title, actor, status, link string, at time.Time, recipients ...string) *TaskEvent {
	return &TaskEvent{
		BaseEvent: NewBaseEvent(eventType, teamID, at, recipients...),
		TaskID:    taskID,
		Title:     title,
		Actor:     actor,
		Status:    status,
		Link:      link,
	}
}

// TaskReviewedEvent is emitted when a reviewer resolves a submitted task.
type TaskReviewedEvent struct {
	BaseEvent
	TaskID     uuid.UUID `json:"task_id"`
	Title      string    `json:"title"`
	Decision   string    `json:"decision"`
	Notes      string    `json:"notes,omitempty"`
	ReviewedBy string    `json:"reviewed_by"`
	Status     string    `json:"status"`
}

// NewTaskReviewedEvent creates a new TaskReviewedEvent addressed to the assignees.
func NewTaskReviewedEvent(teamID, taskID uuid.UUID, title, decision, notes, reviewedBy, status string, assignees []string, at time.Time) *TaskReviewedEvent {
	return &TaskReviewedEvent{
		BaseEvent:  NewBaseEvent(TaskReviewedType, teamID, at, assignees...),
		TaskID:     taskID,
		Title:      title,
		Decision:   decision,
		Notes:      notes,
		ReviewedBy: reviewedBy,
		Status:     status,
	}
}
