package collaboration

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventsync/server/internal/infra/events"
	"github.com/eventsync/server/internal/model"
	"github.com/eventsync/server/internal/port/inbound"
	"github.com/eventsync/server/internal/port/outbound"
)

// ========== Task Operations ==========

// CreateTask creates a pending task assigned to current members.
func (d *Domain) CreateTask(ctx context.Context, teamID uuid.UUID, in *inbound.CreateTaskInput, requesterID string) (*model.Task, error) {
	if in == nil || strings.TrimSpace(in.Title) == "" {
		return nil, ErrInvalidRequest
	}
	priority, err := parsePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	assignees, err := normalizeAssignees(in.AssignedTo)
	if err != nil {
		return nil, err
	}
	requester := normalizeActor(requesterID)

	var task model.Task
	_, err = d.mutateTeam(ctx, teamID, func(_ context.Context, team *model.Team, m *mutation) error {
		if !team.IsActive() {
			return ErrTeamCancelled
		}
		if !HasCapability(team, requester, model.PermissionAssignTasks) {
			return ErrInsufficientPermission
		}
		for _, a := range assignees {
			if !team.HasMember(a) {
				return ErrAssigneeNotMember
			}
		}

		now := d.now()
		task = model.Task{
			ID:           uuid.New(),
			TeamID:       team.ID,
			Title:        strings.TrimSpace(in.Title),
			Description:  in.Description,
			Category:     strings.TrimSpace(in.Category),
			Priority:     priority,
			AssignedTo:   assignees,
			Status:       model.TaskStatusPending,
			ReviewStatus: model.ReviewStatusPending,
			Deadline:     in.Deadline,
			CreatedBy:    requester,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		team.Tasks = append(team.Tasks, task)

		m.emit(events.NewTaskEvent(events.TaskCreatedType, team.ID, task.ID, task.Title, requester, string(task.Status), "", now, assignees...))
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.log(ctx).Info("task created",
		zap.String("team_id", teamID.String()),
		zap.String("task_id", task.ID.String()),
		zap.Strings("assigned_to", assignees),
	)
	return task.Clone(), nil
}

// GetTask retrieves a task by ID.
func (d *Domain) GetTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	team, err := d.teamDB.FindByTaskID(ctx, taskID)
	if err != nil {
		if errors.Is(err, outbound.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	task, ok := team.FindTask(taskID)
	if !ok {
		return nil, ErrTaskNotFound
	}
	return task.Clone(), nil
}

// ListTasks lists every task of a team.
func (d *Domain) ListTasks(ctx context.Context, teamID uuid.UUID) ([]*model.Task, error) {
	team, err := d.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Task, 0, len(team.Tasks))
	for i := range team.Tasks {
		out = append(out, team.Tasks[i].Clone())
	}
	return out, nil
}

// GetTasksForMember lists the tasks of a team assigned to a student.
func (d *Domain) GetTasksForMember(ctx context.Context, teamID uuid.UUID, enrollmentNo string) ([]*model.Task, error) {
	no, err := NormalizeEnrollmentNo(enrollmentNo)
	if err != nil {
		return nil, err
	}
	team, err := d.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Task, 0)
	for i := range team.Tasks {
		if team.Tasks[i].IsAssignedTo(no) {
			out = append(out, team.Tasks[i].Clone())
		}
	}
	return out, nil
}

// StartWork moves a pending task to in progress. On a task sent back for
// revision it acknowledges the revision without changing status.
func (d *Domain) StartWork(ctx context.Context, taskID uuid.UUID, actorID string) (*model.Task, error) {
	actor := normalizeActor(actorID)

	task, err := d.mutateTask(ctx, taskID, func(team *model.Team, task *model.Task, m *mutation) error {
		if !task.IsAssignedTo(actor) {
			return ErrNotAssignee
		}
		if !canStart(task) {
			return ErrInvalidTaskTransition
		}
		now := d.now()
		if task.Status == model.TaskStatusPending {
			if err := transition(task, model.TaskStatusInProgress, now); err != nil {
				return err
			}
		} else {
			task.UpdatedAt = now
		}
		m.emit(events.NewTaskEvent(events.TaskStartedType, team.ID, task.ID, task.Title, actor, string(task.Status), "", now, team.LeaderID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.log(ctx).Info("task started",
		zap.String("task_id", taskID.String()),
		zap.String("actor", actor),
	)
	return task, nil
}

// Submit attaches work to a task and moves it to submitted. A non-empty link is required.
func (d *Domain) Submit(ctx context.Context, taskID uuid.UUID, actorID string, in *inbound.SubmitTaskInput) (*model.Task, error) {
	if in == nil || strings.TrimSpace(in.Link) == "" {
		return nil, ErrMissingSubmissionLink
	}
	link := strings.TrimSpace(in.Link)
	actor := normalizeActor(actorID)

	task, err := d.mutateTask(ctx, taskID, func(team *model.Team, task *model.Task, m *mutation) error {
		if !task.IsAssignedTo(actor) {
			return ErrNotAssignee
		}
		now := d.now()
		if err := transition(task, model.TaskStatusSubmitted, now); err != nil {
			return err
		}
		task.ReviewStatus = model.ReviewStatusPending
		task.Submission = &model.Submission{
			Link:        link,
			Notes:       in.Notes,
			SubmittedBy: actor,
			SubmittedAt: now,
		}
		m.emit(events.NewTaskEvent(events.TaskSubmittedType, team.ID, task.ID, task.Title, actor, string(task.Status), link, now, reviewersOf(team)...))
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.log(ctx).Info("task submitted",
		zap.String("task_id", taskID.String()),
		zap.String("submitted_by", actor),
	)
	return task, nil
}

// Review resolves a submitted task. Only one decision can apply to a submission;
// a second concurrent review fails with ErrNotSubmitted.
func (d *Domain) Review(ctx context.Context, taskID uuid.UUID, reviewerID string, in *inbound.ReviewTaskInput) (*model.Task, error) {
	if in == nil {
		return nil, ErrInvalidRequest
	}
	decision := model.ReviewDecision(strings.ToLower(strings.TrimSpace(in.Decision)))
	if !decision.IsValid() {
		return nil, ErrInvalidDecision
	}
	reviewer := normalizeActor(reviewerID)

	task, err := d.mutateTask(ctx, taskID, func(team *model.Team, task *model.Task, m *mutation) error {
		if !HasCapability(team, reviewer, model.PermissionAssignTasks) {
			return ErrInsufficientPermission
		}
		if task.Status != model.TaskStatusSubmitted {
			return ErrNotSubmitted
		}

		now := d.now()
		status, reviewStatus := reviewOutcome(decision)
		if err := transition(task, status, now); err != nil {
			return err
		}
		task.ReviewStatus = reviewStatus
		task.Review = &model.Review{
			Decision:   decision,
			Notes:      in.Notes,
			ReviewedBy: reviewer,
			ReviewedAt: now,
		}
		m.emit(events.NewTaskReviewedEvent(team.ID, task.ID, task.Title, string(decision), in.Notes, reviewer, string(task.Status), append([]string(nil), task.AssignedTo...), now))
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.log(ctx).Info("task reviewed",
		zap.String("task_id", taskID.String()),
		zap.String("decision", string(decision)),
		zap.String("reviewed_by", reviewer),
	)
	return task, nil
}

// QuickApprove approves a submitted task in one step.
func (d *Domain) QuickApprove(ctx context.Context, taskID uuid.UUID, reviewerID, notes string) (*model.Task, error) {
	return d.Review(ctx, taskID, reviewerID, &inbound.ReviewTaskInput{
		Decision: string(model.ReviewDecisionApproved),
		Notes:    notes,
	})
}

func parsePriority(raw string) (model.TaskPriority, error) {
	p := model.TaskPriority(strings.ToLower(strings.TrimSpace(raw)))
	if p == "" {
		return model.TaskPriorityMedium, nil
	}
	if !p.IsValid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

func normalizeAssignees(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		no, err := NormalizeEnrollmentNo(r)
		if err != nil {
			return nil, err
		}
		if seen[no] {
			continue
		}
		seen[no] = true
		out = append(out, no)
	}
	if len(out) == 0 {
		return nil, ErrEmptyAssignees
	}
	return out, nil
}

// reviewersOf returns the leader and every member allowed to review tasks.
func reviewersOf(team *model.Team) []string {
	out := []string{team.LeaderID}
	for _, r := range team.Roles {
		if r.EnrollmentNo != team.LeaderID && r.Has(model.PermissionAssignTasks) {
			out = append(out, r.EnrollmentNo)
		}
	}
	return out
}
