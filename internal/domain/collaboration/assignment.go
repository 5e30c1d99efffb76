package collaboration

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventsync/server/internal/infra/events"
	"github.com/eventsync/server/internal/model"
	"github.com/eventsync/server/internal/port/inbound"
)

// ========== Role Operations ==========

// AssignRole sets the role of a member, replacing any previous one.
func (d *Domain) AssignRole(ctx context.Context, teamID uuid.UUID, enrollmentNo string, in *inbound.RoleInput, requesterID string) (*model.TeamRoleAssignment, error) {
	if in == nil || strings.TrimSpace(in.Name) == "" {
		return nil, ErrInvalidRequest
	}
	no, err := NormalizeEnrollmentNo(enrollmentNo)
	if err != nil {
		return nil, err
	}
	perms, err := ParsePermissions(in.Permissions)
	if err != nil {
		return nil, err
	}
	requester := normalizeActor(requesterID)

	var assigned model.TeamRoleAssignment
	_, err = d.mutateTeam(ctx, teamID, func(_ context.Context, team *model.Team, m *mutation) error {
		if !team.IsActive() {
			return ErrTeamCancelled
		}
		if !HasCapability(team, requester, model.PermissionAssignRoles) {
			return ErrInsufficientPermission
		}
		if !team.HasMember(no) {
			return ErrMemberNotFound
		}

		now := d.now()
		assigned = model.TeamRoleAssignment{
			EnrollmentNo: no,
			Name:         strings.TrimSpace(in.Name),
			Description:  strings.TrimSpace(in.Description),
			Permissions:  perms,
			AssignedBy:   requester,
			AssignedAt:   &now,
		}
		if existing, ok := team.FindRole(no); ok {
			*existing = assigned
		} else {
			team.Roles = append(team.Roles, assigned)
		}

		m.emit(events.NewRoleAssignedEvent(team.ID, no, assigned.Name, permissionStrings(perms), requester, now))
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.log(ctx).Info("role assigned",
		zap.String("team_id", teamID.String()),
		zap.String("enrollment_no", no),
		zap.String("role", assigned.Name),
		zap.String("assigned_by", requester),
	)
	return &assigned, nil
}

// GetRole returns the effective role of a member.
func (d *Domain) GetRole(ctx context.Context, teamID uuid.UUID, enrollmentNo string) (*model.TeamRoleAssignment, error) {
	no, err := NormalizeEnrollmentNo(enrollmentNo)
	if err != nil {
		return nil, err
	}
	team, err := d.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.HasMember(no) {
		return nil, ErrMemberNotFound
	}
	role := EffectiveRole(team, no)
	return &role, nil
}

// ListRoles returns the effective role of every member.
func (d *Domain) ListRoles(ctx context.Context, teamID uuid.UUID) ([]*model.TeamRoleAssignment, error) {
	team, err := d.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.TeamRoleAssignment, 0, len(team.Members))
	for _, m := range team.Members {
		role := EffectiveRole(team, m.EnrollmentNo)
		out = append(out, &role)
	}
	return out, nil
}
