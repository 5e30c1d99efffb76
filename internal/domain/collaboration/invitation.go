package collaboration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventsync/server/internal/infra/events"
	"github.com/eventsync/server/internal/model"
	"github.com/eventsync/server/internal/port/outbound"
)

// ========== Invitation Operations ==========

// AcceptInvitation turns a pending invitation into a membership. Capacity, team
// status and the registration window are re-validated at accept time.
func (d *Domain) AcceptInvitation(ctx context.Context, invitationID uuid.UUID, actorID string) (*model.TeamMember, error) {
	actor := normalizeActor(actorID)

	inv, err := d.pendingInvitationFor(ctx, invitationID, actor)
	if err != nil {
		return nil, err
	}
	if inv.IsExpired(d.now()) {
		d.expireInvitation(ctx, inv)
		return nil, ErrInvitationExpired
	}
	if err := d.requireRegistrationOpen(ctx, inv.EventID); err != nil {
		return nil, err
	}

	var member model.TeamMember
	_, err = d.mutateTeam(ctx, inv.TeamID, func(txCtx context.Context, team *model.Team, m *mutation) error {
		current, err := d.invitationDB.FindByID(txCtx, invitationID)
		if err != nil {
			return mapInvitationErr(err)
		}
		if current.Status.IsTerminal() {
			return invitationStatusErr(current.Status)
		}
		now := d.now()
		if current.IsExpired(now) {
			return ErrInvitationExpired
		}
		if !team.IsActive() {
			return ErrTeamCancelled
		}
		if team.HasMember(actor) {
			return ErrDuplicateMember
		}
		if len(team.Members) >= team.MaxSize {
			return ErrTeamFull
		}

		if err := d.invitationDB.Transition(txCtx, current.ID, model.InvitationStatusPending, model.InvitationStatusAccepted, now); err != nil {
			return mapInvitationErr(err)
		}
		member = current.Member(now)
		team.Members = append(team.Members, member)

		m.emit(events.NewMemberAddedEvent(team.ID, actor, current.InvitedBy, &current.ID, now))
		m.emit(events.NewInvitationEvent(events.InvitationAcceptedType, team.ID, current.ID, actor, current.InvitedBy, team.Name, current.ExpiresAt, now))
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.log(ctx).Info("invitation accepted",
		zap.String("invitation_id", invitationID.String()),
		zap.String("team_id", inv.TeamID.String()),
		zap.String("enrollment_no", actor),
	)
	return &member, nil
}

// DeclineInvitation declines a pending invitation. A lapsed invitation is
// marked expired instead.
func (d *Domain) DeclineInvitation(ctx context.Context, invitationID uuid.UUID, actorID string) error {
	actor := normalizeActor(actorID)

	inv, err := d.pendingInvitationFor(ctx, invitationID, actor)
	if err != nil {
		return err
	}

	now := d.now()
	if inv.IsExpired(now) {
		d.expireInvitation(ctx, inv)
		return ErrInvitationExpired
	}
	err = d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		return d.invitationDB.Transition(txCtx, inv.ID, model.InvitationStatusPending, model.InvitationStatusDeclined, now)
	})
	if err != nil {
		return mapInvitationErr(err)
	}

	d.log(ctx).Info("invitation declined",
		zap.String("invitation_id", invitationID.String()),
		zap.String("team_id", inv.TeamID.String()),
		zap.String("enrollment_no", actor),
	)
	d.publish(ctx, []events.Event{
		events.NewInvitationEvent(events.InvitationDeclinedType, inv.TeamID, inv.ID, actor, inv.InvitedBy, "", inv.ExpiresAt, now),
	})
	return nil
}

// ListTeamInvitations lists all invitations of a team. Only members may see them.
func (d *Domain) ListTeamInvitations(ctx context.Context, teamID uuid.UUID, requesterID string) ([]*model.TeamInvitation, error) {
	team, err := d.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	requester := normalizeActor(requesterID)
	if !team.IsLeader(requester) && !team.HasMember(requester) {
		return nil, ErrInsufficientPermission
	}
	return d.invitationDB.FindByTeam(ctx, teamID, nil)
}

// ListMyInvitations lists the pending invitations addressed to a student.
// Lapsed invitations the sweeper has not reached yet are left out.
func (d *Domain) ListMyInvitations(ctx context.Context, enrollmentNo string) ([]*model.TeamInvitation, error) {
	no, err := NormalizeEnrollmentNo(enrollmentNo)
	if err != nil {
		return nil, err
	}
	pending := model.InvitationStatusPending
	invs, err := d.invitationDB.FindByInvitee(ctx, no, &pending)
	if err != nil {
		return nil, err
	}

	now := d.now()
	live := invs[:0]
	for _, inv := range invs {
		if !inv.IsExpired(now) {
			live = append(live, inv)
		}
	}
	return live, nil
}

// ExpireInvitations marks lapsed pending invitations as expired and returns how many changed.
func (d *Domain) ExpireInvitations(ctx context.Context, now time.Time) (int, error) {
	lapsed, err := d.invitationDB.FindExpiredPending(ctx, now, d.cfg.SweepBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, inv := range lapsed {
		if d.expireInvitation(ctx, inv) {
			expired++
		}
	}
	if expired > 0 {
		d.log(ctx).Info("invitations expired", zap.Int("count", expired))
	}
	return expired, nil
}

// expireInvitation moves one invitation to expired. Losing the race to an
// accept or decline is not an error.
func (d *Domain) expireInvitation(ctx context.Context, inv *model.TeamInvitation) bool {
	now := d.now()
	err := d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		return d.invitationDB.Transition(txCtx, inv.ID, model.InvitationStatusPending, model.InvitationStatusExpired, now)
	})
	if err != nil {
		if !errors.Is(err, outbound.ErrVersionConflict) {
			d.log(ctx).Warn("failed to expire invitation",
				zap.String("invitation_id", inv.ID.String()),
				zap.Error(err),
			)
		}
		return false
	}
	d.publish(ctx, []events.Event{
		events.NewInvitationEvent(events.InvitationExpiredType, inv.TeamID, inv.ID, inv.InviteeEnrollmentNo, inv.InvitedBy, "", inv.ExpiresAt, now),
	})
	return true
}

// pendingInvitationFor loads an invitation and checks it is pending and addressed to actor.
func (d *Domain) pendingInvitationFor(ctx context.Context, invitationID uuid.UUID, actor string) (*model.TeamInvitation, error) {
	inv, err := d.invitationDB.FindByID(ctx, invitationID)
	if err != nil {
		return nil, mapInvitationErr(err)
	}
	if inv.InviteeEnrollmentNo != actor {
		return nil, ErrInvitationNotForYou
	}
	if inv.Status.IsTerminal() {
		return nil, invitationStatusErr(inv.Status)
	}
	return inv, nil
}

func invitationStatusErr(status model.InvitationStatus) error {
	if status == model.InvitationStatusExpired {
		return ErrInvitationExpired
	}
	return ErrInvitationAlreadyProcessed
}

func mapInvitationErr(err error) error {
	switch {
	case errors.Is(err, outbound.ErrRecordNotFound):
		return ErrInvitationNotFound
	case errors.Is(err, outbound.ErrVersionConflict):
		return ErrInvitationAlreadyProcessed
	default:
		return err
	}
}
