package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the primary lifecycle status of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusSubmitted  TaskStatus = "submitted"
	TaskStatusCompleted  TaskStatus = "completed"
)

// IsOpen reports whether the task still needs work or review.
func (s TaskStatus) IsOpen() bool {
	return s != TaskStatusCompleted
}

// ReviewStatus is the secondary review status of a task.
type ReviewStatus string

const (
	ReviewStatusPending       ReviewStatus = "pending"
	ReviewStatusApproved      ReviewStatus = "approved"
	ReviewStatusRejected      ReviewStatus = "rejected"
	ReviewStatusNeedsRevision ReviewStatus = "needs_revision"
)

// ReviewDecision is a reviewer's resolution of a submitted task.
type ReviewDecision string

const (
	ReviewDecisionApproved      ReviewDecision = "approved"
	ReviewDecisionRejected      ReviewDecision = "rejected"
	ReviewDecisionNeedsRevision ReviewDecision = "needs_revision"
)

// IsValid checks if the decision is known.
func (d ReviewDecision) IsValid() bool {
	switch d {
	case ReviewDecisionApproved, ReviewDecisionRejected, ReviewDecisionNeedsRevision:
		return true
	default:
		return false
	}
}

// TaskPriority represents task priority.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// IsValid checks if the priority is known.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	default:
		return false
	}
}

// Task is a unit of work inside a team.
type Task struct {
	ID           uuid.UUID    `json:"id"`
	TeamID       uuid.UUID    `json:"team_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Category     string       `json:"category,omitempty"`
	Priority     TaskPriority `json:"priority"`
	AssignedTo   []string     `json:"assigned_to"`
	Status       TaskStatus   `json:"status"`
	ReviewStatus ReviewStatus `json:"review_status"`
	Submission   *Submission  `json:"submission,omitempty"`
	Review       *Review      `json:"review,omitempty"`
	Deadline     *time.Time   `json:"deadline,omitempty"`
	CreatedBy    string       `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsAssignedTo reports whether enrollmentNo is among the assignees.
func (t *Task) IsAssignedTo(enrollmentNo string) bool {
	for _, a := range t.AssignedTo {
		if a == enrollmentNo {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	cp := *t
	cp.AssignedTo = append([]string(nil), t.AssignedTo...)
	if t.Submission != nil {
		s := *t.Submission
		cp.Submission = &s
	}
	if t.Review != nil {
		r := *t.Review
		cp.Review = &r
	}
	if t.Deadline != nil {
		d := *t.Deadline
		cp.Deadline = &d
	}
	return &cp
}

// Submission is the work attached to a submitted task.
type Submission struct {
	Link        string    `json:"link"`
	Notes       string    `json:"notes,omitempty"`
	SubmittedBy string    `json:"submitted_by"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Review records the last review decision on a task.
type Review struct {
	Decision   ReviewDecision `json:"decision"`
	Notes      string         `json:"notes,omitempty"`
	ReviewedBy string         `json:"reviewed_by"`
	ReviewedAt time.Time      `json:"reviewed_at"`
}
