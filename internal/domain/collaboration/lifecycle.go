package collaboration

import (
	"time"

	"github.com/eventsync/server/internal/model"
)

// taskTransitions lists every allowed primary status change.
var taskTransitions = newTransitionTable().
	allow(model.TaskStatusPending, model.TaskStatusInProgress, model.TaskStatusSubmitted).
	allow(model.TaskStatusInProgress, model.TaskStatusSubmitted).
	allow(model.TaskStatusSubmitted, model.TaskStatusCompleted, model.TaskStatusInProgress, model.TaskStatusPending)

type transitionTable map[model.TaskStatus]map[model.TaskStatus]bool

func newTransitionTable() transitionTable {
	return make(transitionTable)
}

func (t transitionTable) allow(from model.TaskStatus, to ...model.TaskStatus) transitionTable {
	if t[from] == nil {
		t[from] = make(map[model.TaskStatus]bool, len(to))
	}
	for _, s := range to {
		t[from][s] = true
	}
	return t
}

// CanTransition reports whether a task may move from one status to another.
func CanTransition(from, to model.TaskStatus) bool {
	return taskTransitions[from][to]
}

// transition is the only place a task's status changes.
func transition(task *model.Task, to model.TaskStatus, now time.Time) error {
	if !CanTransition(task.Status, to) {
		return ErrInvalidTaskTransition
	}
	task.Status = to
	task.UpdatedAt = now
	return nil
}

// reviewOutcome maps a decision to the resulting primary and review status.
func reviewOutcome(d model.ReviewDecision) (model.TaskStatus, model.ReviewStatus) {
	switch d {
	case model.ReviewDecisionApproved:
		return model.TaskStatusCompleted, model.ReviewStatusApproved
	case model.ReviewDecisionRejected:
		return model.TaskStatusPending, model.ReviewStatusRejected
	default:
		return model.TaskStatusInProgress, model.ReviewStatusNeedsRevision
	}
}

// canStart reports whether StartWork applies. A task sent back for revision is
// already in progress; starting it again acknowledges the revision.
func canStart(task *model.Task) bool {
	switch task.Status {
	case model.TaskStatusPending:
		return true
	case model.TaskStatusInProgress:
		return task.ReviewStatus == model.ReviewStatusNeedsRevision
	default:
		return false
	}
}
