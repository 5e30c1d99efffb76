package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventsync/server/internal/model"
	"github.com/eventsync/server/internal/port/outbound"
)

// ========== Transaction Adapter ==========

// txContextKey is used to store the transaction in context.
type txContextKeyType struct{}

var txContextKey = txContextKeyType{}

// CollaborationTransactionAdapter implements CollaborationTransactionPort.
type CollaborationTransactionAdapter struct {
	db *gorm.DB
}

// NewCollaborationTransactionAdapter creates a new transaction adapter.
func NewCollaborationTransactionAdapter(db *gorm.DB) *CollaborationTransactionAdapter {
	return &CollaborationTransactionAdapter{db: db}
}

func (a *CollaborationTransactionAdapter) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey, tx))
	})
}

// conn returns the transaction bound to ctx, or db.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// ========== Team Adapter ==========

// TeamAdapter implements TeamDatabasePort.
type TeamAdapter struct {
	db *gorm.DB
}

// NewTeamAdapter creates a new team adapter.
func NewTeamAdapter(db *gorm.DB) *TeamAdapter {
	return &TeamAdapter{db: db}
}

func (a *TeamAdapter) Create(ctx context.Context, team *model.Team) error {
	return conn(ctx, a.db).Create(team).Error
}

func (a *TeamAdapter) FindByID(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	return a.first(conn(ctx, a.db).Where("id = ?", id))
}

func (a *TeamAdapter) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	return a.first(conn(ctx, a.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (a *TeamAdapter) FindByTaskID(ctx context.Context, taskID uuid.UUID) (*model.Team, error) {
	return a.first(conn(ctx, a.db).Where("task_ids @> ARRAY[?]::text[]", taskID.String()))
}

func (a *TeamAdapter) FindActiveByEventAndMember(ctx context.Context, eventID, enrollmentNo string) ([]*model.Team, error) {
	var teams []*model.Team
	err := conn(ctx, a.db).
		Where("event_id = ? AND status = ? AND member_enrollments @> ARRAY[?]::text[]", eventID, model.TeamStatusActive, enrollmentNo).
		Order("created_at DESC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (a *TeamAdapter) FindByMember(ctx context.Context, enrollmentNo string) ([]*model.Team, error) {
	var teams []*model.Team
	err := conn(ctx, a.db).
		Where("member_enrollments @> ARRAY[?]::text[]", enrollmentNo).
		Order("created_at DESC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (a *TeamAdapter) Save(ctx context.Context, team *model.Team) error {
	expected := team.Version
	team.Version = expected + 1

	result := conn(ctx, a.db).
		Model(team).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(team)
	if result.Error != nil {
		team.Version = expected
		return result.Error
	}
	if result.RowsAffected == 0 {
		team.Version = expected
		return outbound.ErrVersionConflict
	}
	return nil
}

func (a *TeamAdapter) first(query *gorm.DB) (*model.Team, error) {
	var team model.Team
	if err := query.First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrRecordNotFound
		}
		return nil, err
	}
	return &team, nil
}

// ========== Invitation Adapter ==========

// TeamInvitationAdapter implements InvitationDatabasePort.
type TeamInvitationAdapter struct {
	db *gorm.DB
}

// NewTeamInvitationAdapter creates a new team invitation adapter.
func NewTeamInvitationAdapter(db *gorm.DB) *TeamInvitationAdapter {
	return &TeamInvitationAdapter{db: db}
}

func (a *TeamInvitationAdapter) Create(ctx context.Context, invitation *model.TeamInvitation) error {
	return conn(ctx, a.db).Create(invitation).Error
}

func (a *TeamInvitationAdapter) FindByID(ctx context.Context, id uuid.UUID) (*model.TeamInvitation, error) {
	return a.first(conn(ctx, a.db).Where("id = ?", id))
}

func (a *TeamInvitationAdapter) FindPending(ctx context.Context, teamID uuid.UUID, enrollmentNo string) (*model.TeamInvitation, error) {
	return a.first(conn(ctx, a.db).
		Where("team_id = ? AND invitee_enrollment_no = ? AND status = ?", teamID, enrollmentNo, model.InvitationStatusPending))
}

func (a *TeamInvitationAdapter) FindByTeam(ctx context.Context, teamID uuid.UUID, status *model.InvitationStatus) ([]*model.TeamInvitation, error) {
	query := conn(ctx, a.db).Where("team_id = ?", teamID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var invitations []*model.TeamInvitation
	if err := query.Order("created_at ASC").Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

func (a *TeamInvitationAdapter) FindByInvitee(ctx context.Context, enrollmentNo string, status *model.InvitationStatus) ([]*model.TeamInvitation, error) {
	query := conn(ctx, a.db).Where("invitee_enrollment_no = ?", enrollmentNo)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var invitations []*model.TeamInvitation
	if err := query.Order("created_at ASC").Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

func (a *TeamInvitationAdapter) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*model.TeamInvitation, error) {
	query := conn(ctx, a.db).
		Where("status = ? AND expires_at <= ?", model.InvitationStatusPending, now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var invitations []*model.TeamInvitation
	if err := query.Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

func (a *TeamInvitationAdapter) Transition(ctx context.Context, id uuid.UUID, from, to model.InvitationStatus, at time.Time) error {
	result := conn(ctx, a.db).
		Model(&model.TeamInvitation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "responded_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := conn(ctx, a.db).Model(&model.TeamInvitation{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return outbound.ErrRecordNotFound
		}
		return outbound.ErrVersionConflict
	}
	return nil
}

func (a *TeamInvitationAdapter) ExpirePendingByTeam(ctx context.Context, teamID uuid.UUID, at time.Time) (int, error) {
	result := conn(ctx, a.db).
		Model(&model.TeamInvitation{}).
		Where("team_id = ? AND status = ?", teamID, model.InvitationStatusPending).
		Updates(map[string]interface{}{"status": model.InvitationStatusExpired, "responded_at": at})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func (a *TeamInvitationAdapter) first(query *gorm.DB) (*model.TeamInvitation, error) {
	var invitation model.TeamInvitation
	if err := query.First(&invitation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrRecordNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

// Compile-time interface checks
var (
	_ outbound.TeamDatabasePort             = (*TeamAdapter)(nil)
	_ outbound.InvitationDatabasePort       = (*TeamInvitationAdapter)(nil)
	_ outbound.CollaborationTransactionPort = (*CollaborationTransactionAdapter)(nil)
)
