package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"duet-api/core/database"
	"duet-api/core/logger"
	"duet-api/modules/matching/entity"
	eventEntity "duet-api/modules/event/entity"
)

// PairMatchRepository handles pair_matches persistence.
type PairMatchRepository struct {
	DB database.Database
}

func NewPairMatchRepository(db database.Database) *PairMatchRepository {
	return &PairMatchRepository{DB: db}
}

type PairMatchRepositoryInterface interface {
	Create(ctx context.Context, pair *entity.PairMatch) error
	GetByPairKey(ctx context.Context, pairKey string) (*entity.PairMatch, error)
	GetByID(ctx context.Context, id string) (*entity.PairMatch, error)
	GetByIDTx(ctx context.Context, tx *sqlx.Tx, id string, forUpdate bool) (*entity.PairMatch, error)
	UpdateDerivedFields(ctx context.Context, pair *entity.PairMatch) error
	GetQueuedByEventType(ctx context.Context, eventType eventEntity.EventType) ([]entity.PairMatch, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]entity.PairMatch, error)
	MarkInEventTx(ctx context.Context, tx *sqlx.Tx, pairID string, eventID string) error
	MarkSidelined(ctx context.Context, pairID string) error
}

const pairColumns = `
	id, pair_key, user_a_id, user_b_id, status, queue_status,
	queue_event_type, suggested_event_type, shared_event_types,
	availability_overlap_count, availability_overlap_segments,
	availability_computed_at, has_sufficient_availability,
	pending_event_id, created_at, updated_at, last_activity_at
`

func (r *PairMatchRepository) Create(ctx context.Context, pair *entity.PairMatch) error {
	query := `
		INSERT INTO pair_matches (
			id, pair_key, user_a_id, user_b_id, status, queue_status,
			queue_event_type, suggested_event_type, shared_event_types,
			availability_overlap_count, availability_overlap_segments,
			availability_computed_at, has_sufficient_availability,
			pending_event_id, created_at, updated_at, last_activity_at
		) VALUES (
			:id, :pair_key, :user_a_id, :user_b_id, :status, :queue_status,
			:queue_event_type, :suggested_event_type, :shared_event_types,
			:availability_overlap_count, :availability_overlap_segments,
			:availability_computed_at, :has_sufficient_availability,
			:pending_event_id, :created_at, :updated_at, :last_activity_at
		)
	`

	_, err := r.DB.NamedExecContext(ctx, query, pair)
	if err != nil {
		logger.Error("PairMatchRepository:Create", err)
		return err
	}
	return nil
}

func (r *PairMatchRepository) GetByPairKey(ctx context.Context, pairKey string) (*entity.PairMatch, error) {
	query := `SELECT ` + pairColumns + ` FROM pair_matches WHERE pair_key = $1`

	var pair entity.PairMatch
	err := r.DB.GetContext(ctx, &pair, query, pairKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("PairMatchRepository:GetByPairKey", err)
		return nil, err
	}
	return &pair, nil
}

func (r *PairMatchRepository) GetByID(ctx context.Context, id string) (*entity.PairMatch, error) {
	query := `SELECT ` + pairColumns + ` FROM pair_matches WHERE id = $1`

	var pair entity.PairMatch
	err := r.DB.GetContext(ctx, &pair, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("PairMatchRepository:GetByID", err)
		return nil, err
	}
	return &pair, nil
}

func (r *PairMatchRepository) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id string, forUpdate bool) (*entity.PairMatch, error) {
	query := `SELECT ` + pairColumns + ` FROM pair_matches WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var pair entity.PairMatch
	err := tx.GetContext(ctx, &pair, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("PairMatchRepository:GetByIDTx", err)
		return nil, err
	}
	return &pair, nil
}

// UpdateDerivedFields rewrites the recomputed queueing fields. It
// deliberately does not touch pending_event_id so an in-flight event
// commitment cannot be clobbered by a recomputation.
func (r *PairMatchRepository) UpdateDerivedFields(ctx context.Context, pair *entity.PairMatch) error {
	query := `
		UPDATE pair_matches
		SET status = $2, queue_status = $3, queue_event_type = $4,
		    suggested_event_type = $5, shared_event_types = $6,
		    availability_overlap_count = $7, availability_overlap_segments = $8,
		    availability_computed_at = $9, has_sufficient_availability = $10,
		    updated_at = NOW(), last_activity_at = NOW()
		WHERE id = $1
	`

	err := r.DB.ExecContext(ctx, query,
		pair.ID, pair.Status, pair.QueueStatus, pair.QueueEventType,
		pair.SuggestedEventType, pair.SharedEventTypes,
		pair.AvailabilityOverlapCount, pair.AvailabilityOverlapSegments,
		pair.AvailabilityComputedAt, pair.HasSufficientAvailability)
	if err != nil {
		logger.Error("PairMatchRepository:UpdateDerivedFields", err)
		return err
	}
	return nil
}

// GetQueuedByEventType returns queued pairs of one type, oldest waiting
// first so queue consumption stays FIFO-fair.
func (r *PairMatchRepository) GetQueuedByEventType(ctx context.Context, eventType eventEntity.EventType) ([]entity.PairMatch, error) {
	query := `
		SELECT ` + pairColumns + `
		FROM pair_matches
		WHERE status = $1 AND queue_status = $2 AND queue_event_type = $3
		ORDER BY availability_computed_at ASC
	`

	var pairs []entity.PairMatch
	err := r.DB.SelectContext(ctx, &pairs, query,
		entity.PairStatusActive, entity.QueueStatusQueued, eventType)
	if err != nil {
		logger.Error("PairMatchRepository:GetQueuedByEventType", err)
		return nil, err
	}
	return pairs, nil
}

func (r *PairMatchRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]entity.PairMatch, error) {
	query := `
		SELECT ` + pairColumns + `
		FROM pair_matches
		WHERE status = $1 AND (user_a_id = $2 OR user_b_id = $2)
		ORDER BY last_activity_at DESC
	`

	var pairs []entity.PairMatch
	err := r.DB.SelectContext(ctx, &pairs, query, entity.PairStatusActive, userID)
	if err != nil {
		logger.Error("PairMatchRepository:GetActiveByUser", err)
		return nil, err
	}
	return pairs, nil
}

// MarkInEventTx commits a pair to an event within the caller's transaction.
func (r *PairMatchRepository) MarkInEventTx(ctx context.Context, tx *sqlx.Tx, pairID string, eventID string) error {
	query := `
		UPDATE pair_matches
		SET queue_status = $2, pending_event_id = $3, updated_at = NOW(), last_activity_at = NOW()
		WHERE id = $1
	`

	_, err := tx.ExecContext(ctx, query, pairID, entity.QueueStatusInEvent, eventID)
	if err != nil {
		logger.Error("PairMatchRepository:MarkInEventTx", err)
		return err
	}
	return nil
}

// MarkSidelined frees a pair after a cancellation. The pair is not
// re-queued; a fresh mutual-like trigger is needed to reactivate it.
func (r *PairMatchRepository) MarkSidelined(ctx context.Context, pairID string) error {
	query := `
		UPDATE pair_matches
		SET queue_status = $2, status = $3, pending_event_id = NULL, updated_at = NOW()
		WHERE id = $1
	`

	err := r.DB.ExecContext(ctx, query, pairID,
		entity.QueueStatusSidelined, entity.PairStatusInactive)
	if err != nil {
		logger.Error("PairMatchRepository:MarkSidelined", err)
		return err
	}
	return nil
}
