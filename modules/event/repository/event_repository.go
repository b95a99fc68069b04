package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"duet-api/core/database"
	"duet-api/core/logger"
	"duet-api/modules/event/entity"
)

// EventRepository handles events persistence.
type EventRepository struct {
	DB database.Database
}

func NewEventRepository(db database.Database) *EventRepository {
	return &EventRepository{DB: db}
}

type EventRepositoryInterface interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, event *entity.Event) error
	GetByID(ctx context.Context, id string) (*entity.Event, error)
	GetByIDTx(ctx context.Context, tx *sqlx.Tx, id string, forUpdate bool) (*entity.Event, error)
	UpdateTx(ctx context.Context, tx *sqlx.Tx, event *entity.Event) error
	SetReady(ctx context.Context, id string, chatRoomID string) error
	MarkReminderSent(ctx context.Context, id string) error
	GetOpenDeficitByType(ctx context.Context, eventType entity.EventType) ([]entity.Event, error)
	GetRemindableInWindow(ctx context.Context, start, end time.Time) ([]entity.Event, error)
	GetByParticipant(ctx context.Context, userID uuid.UUID) ([]entity.Event, error)
}

const eventColumns = `
	id, event_type, title, description, category, location, photos,
	venue_options, venue_vote_totals, votes_submitted_count,
	final_venue_option_id, participant_user_ids, participant_statuses,
	pending_pair_match_ids, required_pair_count, status, suggested_times,
	event_date, reminder_sent, reminder_sent_at, chat_room_id,
	confirmations_received, created_at, updated_at
`

func (r *EventRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, event *entity.Event) error {
	query := `
		INSERT INTO events (
			id, event_type, title, description, category, location, photos,
			venue_options, venue_vote_totals, votes_submitted_count,
			final_venue_option_id, participant_user_ids, participant_statuses,
			pending_pair_match_ids, required_pair_count, status, suggested_times,
			event_date, reminder_sent, reminder_sent_at, chat_room_id,
			confirmations_received, created_at, updated_at
		) VALUES (
			:id, :event_type, :title, :description, :category, :location, :photos,
			:venue_options, :venue_vote_totals, :votes_submitted_count,
			:final_venue_option_id, :participant_user_ids, :participant_statuses,
			:pending_pair_match_ids, :required_pair_count, :status, :suggested_times,
			:event_date, :reminder_sent, :reminder_sent_at, :chat_room_id,
			:confirmations_received, :created_at, :updated_at
		)
	`

	_, err := tx.NamedExecContext(ctx, query, event)
	if err != nil {
		logger.Error("EventRepository:CreateTx", err)
		return err
	}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var event entity.Event
	err := r.DB.GetContext(ctx, &event, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:GetByID", err)
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id string, forUpdate bool) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var event entity.Event
	err := tx.GetContext(ctx, &event, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:GetByIDTx", err)
		return nil, err
	}
	return &event, nil
}

// UpdateTx writes back every mutable column. Events are always mutated
// under a transaction holding the row lock, never by blind field overwrite.
func (r *EventRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, event *entity.Event) error {
	query := `
		UPDATE events
		SET venue_options = :venue_options,
		    venue_vote_totals = :venue_vote_totals,
		    votes_submitted_count = :votes_submitted_count,
		    final_venue_option_id = :final_venue_option_id,
		    participant_user_ids = :participant_user_ids,
		    participant_statuses = :participant_statuses,
		    pending_pair_match_ids = :pending_pair_match_ids,
		    status = :status,
		    suggested_times = :suggested_times,
		    event_date = :event_date,
		    chat_room_id = :chat_room_id,
		    confirmations_received = :confirmations_received,
		    updated_at = NOW()
		WHERE id = :id
	`

	_, err := tx.NamedExecContext(ctx, query, event)
	if err != nil {
		logger.Error("EventRepository:UpdateTx", err)
		return err
	}
	return nil
}

func (r *EventRepository) SetReady(ctx context.Context, id string, chatRoomID string) error {
	query := `
		UPDATE events
		SET status = $2, chat_room_id = $3, updated_at = NOW()
		WHERE id = $1
	`

	err := r.DB.ExecContext(ctx, query, id, entity.EventStatusReady, chatRoomID)
	if err != nil {
		logger.Error("EventRepository:SetReady", err)
		return err
	}
	return nil
}

func (r *EventRepository) MarkReminderSent(ctx context.Context, id string) error {
	query := `
		UPDATE events
		SET reminder_sent = TRUE, reminder_sent_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`

	err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		logger.Error("EventRepository:MarkReminderSent", err)
		return err
	}
	return nil
}

// GetOpenDeficitByType returns events of the type still waiting on joins
// that hold fewer pairs than they need, oldest first.
func (r *EventRepository) GetOpenDeficitByType(ctx context.Context, eventType entity.EventType) ([]entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE event_type = $1 AND status = $2
		  AND jsonb_array_length(pending_pair_match_ids) < required_pair_count
		ORDER BY created_at ASC
	`

	var events []entity.Event
	err := r.DB.SelectContext(ctx, &events, query, eventType, entity.EventStatusPendingJoin)
	if err != nil {
		logger.Error("EventRepository:GetOpenDeficitByType", err)
		return nil, err
	}
	return events, nil
}

// GetRemindableInWindow returns ready, not-yet-reminded events whose date
// falls inside [start, end).
func (r *EventRepository) GetRemindableInWindow(ctx context.Context, start, end time.Time) ([]entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE status = $1 AND reminder_sent = FALSE
		  AND event_date >= $2 AND event_date < $3
		ORDER BY event_date ASC
	`

	var events []entity.Event
	err := r.DB.SelectContext(ctx, &events, query, entity.EventStatusReady, start, end)
	if err != nil {
		logger.Error("EventRepository:GetRemindableInWindow", err)
		return nil, err
	}
	return events, nil
}

// GetByParticipant lists events the user is currently attached to.
func (r *EventRepository) GetByParticipant(ctx context.Context, userID uuid.UUID) ([]entity.Event, error) {
	contains, err := json.Marshal([]string{userID.String()})
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE participant_user_ids @> $1
		ORDER BY created_at DESC
	`

	var events []entity.Event
	err = r.DB.SelectContext(ctx, &events, query, contains)
	if err != nil {
		logger.Error("EventRepository:GetByParticipant", err)
		return nil, err
	}
	return events, nil
}
