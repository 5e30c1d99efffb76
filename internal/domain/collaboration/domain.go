package collaboration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eventsync/server/internal/infra/events"
	"github.com/eventsync/server/internal/model"
	"github.com/eventsync/server/internal/port/inbound"
	"github.com/eventsync/server/internal/port/outbound"
	"github.com/eventsync/server/internal/shared/logger"
)

var _ inbound.CollaborationDomain = (*Domain)(nil)

// Domain implements the collaboration domain logic.
// Every mutation of a team runs under that team's lock inside one transaction.
type Domain struct {
	teamDB       outbound.TeamDatabasePort
	invitationDB outbound.InvitationDatabasePort
	txPort       outbound.CollaborationTransactionPort
	eligibility  outbound.EligibilityPort
	directory    outbound.StudentDirectoryPort
	eventConfig  outbound.EventConfigPort
	publisher    outbound.EventPublisherPort
	cfg          *Config
	logger       *zap.Logger

	locks *keyedMutex
	now   func() time.Time
}

// NewDomain creates a new collaboration domain.
func NewDomain(
	teamDB outbound.TeamDatabasePort,
	invitationDB outbound.InvitationDatabasePort,
	txPort outbound.CollaborationTransactionPort,
	eligibility outbound.EligibilityPort,
	directory outbound.StudentDirectoryPort,
	eventConfig outbound.EventConfigPort,
	publisher outbound.EventPublisherPort,
	cfg *Config,
	logger *zap.Logger,
) *Domain {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Domain{
		teamDB:       teamDB,
		invitationDB: invitationDB,
		txPort:       txPort,
		eligibility:  eligibility,
		directory:    directory,
		eventConfig:  eventConfig,
		publisher:    publisher,
		cfg:          cfg,
		logger:       logger,
		locks:        newKeyedMutex(),
		now:          time.Now,
	}
}

// mutation collects the side effects of one team change.
type mutation struct {
	events []events.Event
	// skipSave commits the transaction without writing the team row.
	skipSave bool
}

func (m *mutation) emit(e events.Event) {
	m.events = append(m.events, e)
}

// mutateTeam loads the team under its lock, applies fn and saves the result with a
// version check. Events are published after the lock is released.
func (d *Domain) mutateTeam(ctx context.Context, teamID uuid.UUID, fn func(txCtx context.Context, team *model.Team, m *mutation) error) (*model.Team, error) {
	unlock := d.locks.Lock("team:" + teamID.String())
	var (
		team *model.Team
		m    mutation
	)
	err := d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		team, err = d.teamDB.FindByIDForUpdate(txCtx, teamID)
		if err != nil {
			return mapTeamErr(err)
		}
		if err := fn(txCtx, team, &m); err != nil {
			return err
		}
		if m.skipSave {
			return nil
		}
		team.UpdatedAt = d.now()
		team.SyncIndexes()
		if err := d.teamDB.Save(txCtx, team); err != nil {
			return mapTeamErr(err)
		}
		return nil
	})
	unlock()

	if err != nil {
		return nil, err
	}
	d.publish(ctx, m.events)
	return team, nil
}

// mutateTask locates the team owning taskID and applies fn to the task under the team lock.
func (d *Domain) mutateTask(ctx context.Context, taskID uuid.UUID, fn func(team *model.Team, task *model.Task, m *mutation) error) (*model.Task, error) {
	owner, err := d.teamDB.FindByTaskID(ctx, taskID)
	if err != nil {
		if errors.Is(err, outbound.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	var out *model.Task
	_, err = d.mutateTeam(ctx, owner.ID, func(_ context.Context, team *model.Team, m *mutation) error {
		task, ok := team.FindTask(taskID)
		if !ok {
			return ErrTaskNotFound
		}
		if !team.IsActive() {
			return ErrTeamCancelled
		}
		if err := fn(team, task, m); err != nil {
			return err
		}
		out = task.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// log returns the request-scoped logger carried by ctx, if any.
func (d *Domain) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, d.logger)
}

func (d *Domain) publish(ctx context.Context, evts []events.Event) {
	if d.publisher == nil {
		return
	}
	for _, e := range evts {
		d.publisher.Publish(ctx, e)
	}
}

func (d *Domain) loadTeam(ctx context.Context, teamID uuid.UUID) (*model.Team, error) {
	team, err := d.teamDB.FindByID(ctx, teamID)
	if err != nil {
		return nil, mapTeamErr(err)
	}
	return team, nil
}

// loadEventConfig reads the event's team policy.
func (d *Domain) loadEventConfig(ctx context.Context, eventID string) (*outbound.EventTeamConfig, error) {
	cfg, err := d.eventConfig.GetEventTeamConfig(ctx, eventID)
	if err != nil {
		if errors.Is(err, outbound.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, ErrEventConfigUnavailable.Wrap(err)
	}
	return cfg, nil
}

// requireRegistrationOpen consults the event's registration window.
func (d *Domain) requireRegistrationOpen(ctx context.Context, eventID string) error {
	cfg, err := d.loadEventConfig(ctx, eventID)
	if err != nil {
		return err
	}
	if !cfg.RegistrationOpen {
		return ErrRegistrationClosed
	}
	return nil
}

// checkStudent runs the eligibility check and directory lookup concurrently.
// It must be called without holding any team lock.
func (d *Domain) checkStudent(ctx context.Context, enrollmentNo, eventID string) (*outbound.StudentProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ExternalCheckTimeout)
	defer cancel()

	var (
		eligible bool
		profile  *outbound.StudentProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ok, err := d.eligibility.CheckEligibility(gctx, enrollmentNo, eventID)
		if err != nil {
			return ErrEligibilityUnavailable.Wrap(err)
		}
		eligible = ok
		return nil
	})
	g.Go(func() error {
		p, err := d.directory.LookupStudent(gctx, enrollmentNo)
		if err != nil {
			if errors.Is(err, outbound.ErrRecordNotFound) {
				return ErrStudentNotFound
			}
			return ErrDirectoryUnavailable.Wrap(err)
		}
		profile = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !eligible {
		return nil, ErrNotEligible
	}
	if profile == nil {
		return nil, ErrStudentNotFound
	}
	return profile, nil
}

func mapTeamErr(err error) error {
	switch {
	case errors.Is(err, outbound.ErrRecordNotFound):
		return ErrTeamNotFound
	case errors.Is(err, outbound.ErrVersionConflict):
		return ErrConcurrentModification.Wrap(err)
	default:
		return err
	}
}

func newMember(p *outbound.StudentProfile, enrollmentNo string, joinedAt time.Time) model.TeamMember {
	return model.TeamMember{
		EnrollmentNo: enrollmentNo,
		Name:         p.Name,
		Email:        p.Email,
		Department:   p.Department,
		JoinedAt:     joinedAt,
	}
}

// toTeamView builds the read projection of a team with computed roles.
func toTeamView(team *model.Team) *inbound.TeamView {
	members := make([]inbound.MemberView, 0, len(team.Members))
	for _, m := range team.Members {
		members = append(members, inbound.MemberView{
			TeamMember: m,
			Role:       EffectiveRole(team, m.EnrollmentNo),
			IsLeader:   team.IsLeader(m.EnrollmentNo),
		})
	}
	return &inbound.TeamView{
		ID:             team.ID,
		EventID:        team.EventID,
		Name:           team.Name,
		Status:         team.Status,
		MinSize:        team.MinSize,
		MaxSize:        team.MaxSize,
		MembershipMode: team.MembershipMode,
		LeaderID:       team.LeaderID,
		Members:        members,
		TaskCount:      len(team.Tasks),
		CreatedAt:      team.CreatedAt,
		UpdatedAt:      team.UpdatedAt,
		CancelledAt:    team.CancelledAt,
	}
}
