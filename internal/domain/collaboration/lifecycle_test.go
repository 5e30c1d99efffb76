package collaboration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventsync/server/internal/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to model.TaskStatus
		want     bool
	}{
		{model.TaskStatusPending, model.TaskStatusInProgress, true},
		{model.TaskStatusPending, model.TaskStatusSubmitted, true},
		{model.TaskStatusPending, model.TaskStatusCompleted, false},
		{model.TaskStatusInProgress, model.TaskStatusSubmitted, true},
		{model.TaskStatusInProgress, model.TaskStatusPending, false},
		{model.TaskStatusInProgress, model.TaskStatusCompleted, false},
		{model.TaskStatusSubmitted, model.TaskStatusCompleted, true},
		{model.TaskStatusSubmitted, model.TaskStatusInProgress, true},
		{model.TaskStatusSubmitted, model.TaskStatusPending, true},
		{model.TaskStatusCompleted, model.TaskStatusInProgress, false},
		{model.TaskStatusCompleted, model.TaskStatusSubmitted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTransition(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	task := &model.Task{Status: model.TaskStatusCompleted}

	err := transition(task, model.TaskStatusPending, now)
	assert.ErrorIs(t, err, ErrInvalidTaskTransition)
	assert.Equal(t, model.TaskStatusCompleted, task.Status)
	assert.True(t, task.UpdatedAt.IsZero())

	task.Status = model.TaskStatusPending
	require.NoError(t, transition(task, model.TaskStatusInProgress, now))
	assert.Equal(t, now, task.UpdatedAt)
}

func TestReviewOutcome(t *testing.T) {
	status, review := reviewOutcome(model.ReviewDecisionApproved)
	assert.Equal(t, model.TaskStatusCompleted, status)
	assert.Equal(t, model.ReviewStatusApproved, review)

	status, review = reviewOutcome(model.ReviewDecisionRejected)
	assert.Equal(t, model.TaskStatusPending, status)
	assert.Equal(t, model.ReviewStatusRejected, review)

	status, review = reviewOutcome(model.ReviewDecisionNeedsRevision)
	assert.Equal(t, model.TaskStatusInProgress, status)
	assert.Equal(t, model.ReviewStatusNeedsRevision, review)
}

func TestNormalizeEnrollmentNo(t *testing.T) {
	got, err := NormalizeEnrollmentNo("  21cse00042 ")
	require.NoError(t, err)
	assert.Equal(t, "21CSE00042", got)

	for _, bad := range []string{"", "21C00001", "2CS00001", "21CS0001", "21CS000011", "21CSEEE00001"} {
		_, err := NormalizeEnrollmentNo(bad)
		assert.ErrorIs(t, err, ErrInvalidEnrollmentNo, bad)
	}
}

func TestParsePermissions(t *testing.T) {
	perms, err := ParsePermissions([]string{"Manage_Team", "assign_tasks", "manage_team"})
	require.NoError(t, err)
	assert.Equal(t, []model.Permission{model.PermissionManageTeam, model.PermissionAssignTasks}, perms)

	_, err = ParsePermissions([]string{"admin"})
	assert.ErrorIs(t, err, ErrInvalidPermission)
}

func TestHasCapability(t *testing.T) {
	team := &model.Team{
		LeaderID: leader,
		Members:  []model.TeamMember{{EnrollmentNo: leader}, {EnrollmentNo: member2}, {EnrollmentNo: member3}},
		Roles: []model.TeamRoleAssignment{
			{EnrollmentNo: member2, Name: "Dev Lead", Permissions: []model.Permission{model.PermissionAssignTasks}},
			{EnrollmentNo: member5, Name: "Former", Permissions: model.AllPermissions()},
		},
	}

	assert.True(t, HasCapability(team, leader, model.PermissionAssignRoles))
	assert.True(t, HasCapability(team, member2, model.PermissionAssignTasks))
	assert.False(t, HasCapability(team, member2, model.PermissionManageTeam))
	assert.False(t, HasCapability(team, member3, model.PermissionAssignTasks))
	assert.False(t, HasCapability(team, member5, model.PermissionManageTeam))
}
