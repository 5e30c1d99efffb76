package collaboration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventsync/server/internal/infra/events"
	"github.com/eventsync/server/internal/model"
	"github.com/eventsync/server/internal/port/inbound"
	"github.com/eventsync/server/internal/port/outbound"
)

// ========== Member Operations ==========

// AddMember adds a student to a team. Direct-mode teams get the member at once;
// invitational teams get a pending invitation instead.
func (d *Domain) AddMember(ctx context.Context, teamID uuid.UUID, enrollmentNo, requesterID string) (*inbound.AddMemberResult, error) {
	no, err := NormalizeEnrollmentNo(enrollmentNo)
	if err != nil {
		return nil, err
	}
	requester := normalizeActor(requesterID)

	// Cheap checks against a snapshot before calling external services.
	snapshot, err := d.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := checkCanAdd(snapshot, no, requester); err != nil {
		return nil, err
	}
	if err := d.requireRegistrationOpen(ctx, snapshot.EventID); err != nil {
		return nil, err
	}
	profile, err := d.checkStudent(ctx, no, snapshot.EventID)
	if err != nil {
		return nil, err
	}

	if snapshot.MembershipMode == model.MembershipModeInvitational {
		inv, err := d.invite(ctx, teamID, no, requester, profile)
		if err != nil {
			return nil, err
		}
		return &inbound.AddMemberResult{Invitation: inv}, nil
	}

	unlock := d.locks.Lock(studentKey(snapshot.EventID, no))
	defer unlock()

	var member model.TeamMember
	_, err = d.mutateTeam(ctx, teamID, func(txCtx context.Context, team *model.Team, m *mutation) error {
		if err := checkCanAdd(team, no, requester); err != nil {
			return err
		}
		if err := d.ensureNotRegistered(txCtx, team.EventID, no, team.ID); err != nil {
			return err
		}
		now := d.now()
		member = newMember(profile, no, now)
		team.Members = append(team.Members, member)
		m.emit(events.NewMemberAddedEvent(team.ID, no, requester, nil, now))
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.log(ctx).Info("member added",
		zap.String("team_id", teamID.String()),
		zap.String("enrollment_no", no),
		zap.String("added_by", requester),
	)
	return &inbound.AddMemberResult{Member: &member}, nil
}

// invite records a pending invitation under the team lock.
func (d *Domain) invite(ctx context.Context, teamID uuid.UUID, no, requester string, profile *outbound.StudentProfile) (*model.TeamInvitation, error) {
	var inv *model.TeamInvitation
	_, err := d.mutateTeam(ctx, teamID, func(txCtx context.Context, team *model.Team, m *mutation) error {
		if err := checkCanAdd(team, no, requester); err != nil {
			return err
		}
		existing, err := d.invitationDB.FindPending(txCtx, team.ID, no)
		if err != nil && !errors.Is(err, outbound.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			return ErrInvitationAlreadyPending
		}

		now := d.now()
		inv = &model.TeamInvitation{
			ID:                  uuid.New(),
			TeamID:              team.ID,
			EventID:             team.EventID,
			InviteeEnrollmentNo: no,
			InviteeName:         profile.Name,
			InviteeEmail:        profile.Email,
			InviteeDepartment:   profile.Department,
			InvitedBy:           requester,
			Status:              model.InvitationStatusPending,
			ExpiresAt:           now.Add(d.cfg.InvitationExpiry),
			CreatedAt:           now,
		}
		if err := d.invitationDB.Create(txCtx, inv); err != nil {
			return err
		}
		m.skipSave = true
		m.emit(events.NewInvitationEvent(events.InvitationSentType, team.ID, inv.ID, no, requester, team.Name, inv.ExpiresAt, now))
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.log(ctx).Info("invitation sent",
		zap.String("team_id", teamID.String()),
		zap.String("invitation_id", inv.ID.String()),
		zap.String("invitee", no),
	)
	return inv, nil
}

// checkCanAdd validates an add against the current team state.
func checkCanAdd(team *model.Team, no, requester string) error {
	if !team.IsActive() {
		return ErrTeamCancelled
	}
	if !HasCapability(team, requester, model.PermissionManageTeam) {
		return ErrInsufficientPermission
	}
	if team.HasMember(no) {
		return ErrDuplicateMember
	}
	if len(team.Members) >= team.MaxSize {
		return ErrTeamFull
	}
	return nil
}

// RemoveMember removes a member. The leader and manage_team holders may remove
// others; any member may remove themself. The leader is never removed.
func (d *Domain) RemoveMember(ctx context.Context, teamID uuid.UUID, enrollmentNo, requesterID string) error {
	no, err := NormalizeEnrollmentNo(enrollmentNo)
	if err != nil {
		return err
	}
	requester := normalizeActor(requesterID)

	snapshot, err := d.loadTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if !snapshot.IsActive() {
		return ErrTeamCancelled
	}
	if err := d.requireRegistrationOpen(ctx, snapshot.EventID); err != nil {
		return err
	}

	_, err = d.mutateTeam(ctx, teamID, func(_ context.Context, team *model.Team, m *mutation) error {
		if !team.IsActive() {
			return ErrTeamCancelled
		}
		if requester != no && !HasCapability(team, requester, model.PermissionManageTeam) {
			return ErrInsufficientPermission
		}
		if !team.HasMember(no) {
			return ErrMemberNotFound
		}
		if team.IsLeader(no) {
			return ErrCannotRemoveLeader
		}
		if len(team.Members)-1 < team.MinSize {
			return ErrBelowMinimumSize
		}

		now := d.now()
		removeMember(team, no, now)
		m.emit(events.NewMemberRemovedEvent(team.ID, no, requester, now))
		return nil
	})
	if err != nil {
		return err
	}

	d.log(ctx).Info("member removed",
		zap.String("team_id", teamID.String()),
		zap.String("enrollment_no", no),
		zap.String("removed_by", requester),
	)
	return nil
}

// removeMember drops a member, its role and its open task assignments.
// Open tasks left without assignees fall back to the leader.
func removeMember(team *model.Team, no string, now time.Time) {
	members := team.Members[:0]
	for _, mem := range team.Members {
		if mem.EnrollmentNo != no {
			members = append(members, mem)
		}
	}
	team.Members = members

	roles := team.Roles[:0]
	for _, r := range team.Roles {
		if r.EnrollmentNo != no {
			roles = append(roles, r)
		}
	}
	team.Roles = roles

	for i := range team.Tasks {
		task := &team.Tasks[i]
		if !task.Status.IsOpen() || !task.IsAssignedTo(no) {
			continue
		}
		assignees := make([]string, 0, len(task.AssignedTo))
		for _, a := range task.AssignedTo {
			if a != no {
				assignees = append(assignees, a)
			}
		}
		if len(assignees) == 0 {
			assignees = append(assignees, team.LeaderID)
		}
		task.AssignedTo = assignees
		task.UpdatedAt = now
	}
}
