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

// ========== Team Operations ==========

// CreateTeam creates a team led by the requester. The event's size bounds and
// membership mode are copied onto the team and never re-read.
func (d *Domain) CreateTeam(ctx context.Context, requesterID string, in *inbound.CreateTeamInput) (*inbound.TeamView, error) {
	if in == nil || strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.EventID) == "" {
		return nil, ErrInvalidRequest
	}
	leaderID, err := NormalizeEnrollmentNo(requesterID)
	if err != nil {
		return nil, err
	}
	eventID := strings.TrimSpace(in.EventID)

	eventCfg, err := d.loadEventConfig(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if eventCfg.MinSize < 1 || eventCfg.MaxSize < eventCfg.MinSize {
		return nil, ErrInvalidEventConfig
	}
	if !eventCfg.RegistrationOpen {
		return nil, ErrRegistrationClosed
	}

	profile, err := d.checkStudent(ctx, leaderID, eventID)
	if err != nil {
		return nil, err
	}

	mode := model.MembershipModeDirect
	if eventCfg.AllowMultipleTeamRegistrations {
		mode = model.MembershipModeInvitational
	} else {
		unlock := d.locks.Lock(studentKey(eventID, leaderID))
		defer unlock()
	}

	now := d.now()
	team := &model.Team{
		ID:             uuid.New(),
		EventID:        eventID,
		Name:           strings.TrimSpace(in.Name),
		Status:         model.TeamStatusActive,
		MinSize:        eventCfg.MinSize,
		MaxSize:        eventCfg.MaxSize,
		MembershipMode: mode,
		LeaderID:       leaderID,
		Members:        []model.TeamMember{newMember(profile, leaderID, now)},
		Roles:          []model.TeamRoleAssignment{},
		Tasks:          []model.Task{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	team.SyncIndexes()

	err = d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		if mode == model.MembershipModeDirect {
			if err := d.ensureNotRegistered(txCtx, eventID, leaderID, uuid.Nil); err != nil {
				return err
			}
		}
		return d.teamDB.Create(txCtx, team)
	})
	if err != nil {
		return nil, err
	}

	d.log(ctx).Info("team created",
		zap.String("team_id", team.ID.String()),
		zap.String("event_id", eventID),
		zap.String("leader_id", leaderID),
		zap.String("membership_mode", string(mode)),
	)
	d.publish(ctx, []events.Event{events.NewTeamCreatedEvent(team.ID, eventID, team.Name, leaderID, now)})

	return toTeamView(team), nil
}

// GetTeam returns a team with the effective role of every member.
func (d *Domain) GetTeam(ctx context.Context, teamID uuid.UUID) (*inbound.TeamView, error) {
	team, err := d.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return toTeamView(team), nil
}

// ListTeamsForStudent lists the teams a student belongs to.
func (d *Domain) ListTeamsForStudent(ctx context.Context, enrollmentNo string) ([]*inbound.TeamView, error) {
	no, err := NormalizeEnrollmentNo(enrollmentNo)
	if err != nil {
		return nil, err
	}
	teams, err := d.teamDB.FindByMember(ctx, no)
	if err != nil {
		return nil, err
	}
	out := make([]*inbound.TeamView, 0, len(teams))
	for _, t := range teams {
		out = append(out, toTeamView(t))
	}
	return out, nil
}

// CancelTeam cancels a team, removing all members and expiring pending invitations.
// Cancelling an already cancelled team succeeds without changes.
func (d *Domain) CancelTeam(ctx context.Context, teamID uuid.UUID, requesterID string) error {
	requester := normalizeActor(requesterID)

	var cancelled bool
	_, err := d.mutateTeam(ctx, teamID, func(txCtx context.Context, team *model.Team, m *mutation) error {
		if !team.IsActive() {
			m.skipSave = true
			return nil
		}
		if !team.IsLeader(requester) {
			return ErrOnlyLeaderCanCancel
		}

		now := d.now()
		expired, err := d.invitationDB.ExpirePendingByTeam(txCtx, team.ID, now)
		if err != nil {
			return err
		}

		former := append([]string(nil), team.MemberEnrollments...)
		team.Status = model.TeamStatusCancelled
		team.CancelledAt = &now
		team.Members = []model.TeamMember{}
		team.Roles = []model.TeamRoleAssignment{}
		cancelled = true

		m.emit(events.NewTeamCancelledEvent(team.ID, requester, former, expired, now))
		return nil
	})
	if err != nil {
		return err
	}

	if cancelled {
		d.log(ctx).Info("team cancelled",
			zap.String("team_id", teamID.String()),
			zap.String("cancelled_by", requester),
		)
	}
	return nil
}

// ensureNotRegistered fails when the student already belongs to another active team of the event.
func (d *Domain) ensureNotRegistered(ctx context.Context, eventID, enrollmentNo string, exceptTeam uuid.UUID) error {
	teams, err := d.teamDB.FindActiveByEventAndMember(ctx, eventID, enrollmentNo)
	if err != nil {
		return err
	}
	for _, t := range teams {
		if t.ID != exceptTeam {
			return ErrAlreadyRegisteredForEvent
		}
	}
	return nil
}

func studentKey(eventID, enrollmentNo string) string {
	return "student:" + eventID + ":" + enrollmentNo
}

// normalizeActor upper-cases an actor id taken from a token. Malformed ids are
// only trimmed and then fail membership checks.
func normalizeActor(actor string) string {
	if no, err := NormalizeEnrollmentNo(actor); err == nil {
		return no
	}
	return strings.TrimSpace(actor)
}
