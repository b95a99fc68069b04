package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"duet-api/core/database"
	"duet-api/core/logger"
	"duet-api/modules/event/entity"
)

// ParticipantRepository handles event_participants persistence.
type ParticipantRepository struct {
	DB database.Database
}

func NewParticipantRepository(db database.Database) *ParticipantRepository {
	return &ParticipantRepository{DB: db}
}

type ParticipantRepositoryInterface interface {
	Get(ctx context.Context, id string) (*entity.EventParticipant, error)
	GetTx(ctx context.Context, tx *sqlx.Tx, id string, forUpdate bool) (*entity.EventParticipant, error)
	UpsertTx(ctx context.Context, tx *sqlx.Tx, participant *entity.EventParticipant) error
	ListByEvent(ctx context.Context, eventID string) ([]entity.EventParticipant, error)
}

const participantColumns = `
	id, event_id, user_id, status, vote_venue_option_id,
	joined_at, confirmed_at, canceled_at, created_at, updated_at
`

func (r *ParticipantRepository) Get(ctx context.Context, id string) (*entity.EventParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM event_participants WHERE id = $1`

	var participant entity.EventParticipant
	err := r.DB.GetContext(ctx, &participant, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("ParticipantRepository:Get", err)
		return nil, err
	}
	return &participant, nil
}

func (r *ParticipantRepository) GetTx(ctx context.Context, tx *sqlx.Tx, id string, forUpdate bool) (*entity.EventParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM event_participants WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var participant entity.EventParticipant
	err := tx.GetContext(ctx, &participant, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("ParticipantRepository:GetTx", err)
		return nil, err
	}
	return &participant, nil
}

func (r *ParticipantRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, participant *entity.EventParticipant) error {
	query := `
		INSERT INTO event_participants (
			id, event_id, user_id, status, vote_venue_option_id,
			joined_at, confirmed_at, canceled_at, created_at, updated_at
		) VALUES (
			:id, :event_id, :user_id, :status, :vote_venue_option_id,
			:joined_at, :confirmed_at, :canceled_at, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			vote_venue_option_id = EXCLUDED.vote_venue_option_id,
			joined_at = EXCLUDED.joined_at,
			confirmed_at = EXCLUDED.confirmed_at,
			canceled_at = EXCLUDED.canceled_at,
			updated_at = NOW()
	`

	_, err := tx.NamedExecContext(ctx, query, participant)
	if err != nil {
		logger.Error("ParticipantRepository:UpsertTx", err)
		return err
	}
	return nil
}

func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID string) ([]entity.EventParticipant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM event_participants
		WHERE event_id = $1
		ORDER BY created_at ASC
	`

	var participants []entity.EventParticipant
	err := r.DB.SelectContext(ctx, &participants, query, eventID)
	if err != nil {
		logger.Error("ParticipantRepository:ListByEvent", err)
		return nil, err
	}
	return participants, nil
}
