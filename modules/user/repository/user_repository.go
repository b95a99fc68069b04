package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"duet-api/core/database"
	"duet-api/core/logger"
	"duet-api/modules/user/entity"
)

// UserRepository touches only the event-orchestration columns of the users
// table; the profile subsystem owns everything else.
type UserRepository struct {
	DB database.Database
}

func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{DB: db}
}

type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, forUpdate bool) (*entity.User, error)
	UpdateEventStateTx(ctx context.Context, tx *sqlx.Tx, user *entity.User) error
	UpsertPendingEvent(ctx context.Context, userID uuid.UUID, assignment entity.EventAssignment) error
}

const userColumns = `
	id, interests, availability, pending_events, joined_events,
	event_cancel_count, event_ban_until, created_at, updated_at
`

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user entity.User
	err := r.DB.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("UserRepository:GetByID", err)
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, forUpdate bool) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var user entity.User
	err := tx.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("UserRepository:GetByIDTx", err)
		return nil, err
	}

	return &user, nil
}

// UpdateEventStateTx writes back the orchestration bookkeeping fields.
func (r *UserRepository) UpdateEventStateTx(ctx context.Context, tx *sqlx.Tx, user *entity.User) error {
	query := `
		UPDATE users
		SET pending_events = $2, joined_events = $3,
		    event_cancel_count = $4, event_ban_until = $5, updated_at = NOW()
		WHERE id = $1
	`

	_, err := tx.ExecContext(ctx, query,
		user.ID, user.PendingEvents, user.JoinedEvents,
		user.EventCancelCount, user.EventBanUntil)
	if err != nil {
		logger.Error("UserRepository:UpdateEventStateTx", err)
		return err
	}

	return nil
}

// UpsertPendingEvent replaces or appends the user's assignment record for
// one event, inside its own transaction with the user row locked.
func (r *UserRepository) UpsertPendingEvent(ctx context.Context, userID uuid.UUID, assignment entity.EventAssignment) error {
	return r.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := r.GetByIDTx(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		if user == nil {
			logger.Warn("UserRepository:UpsertPendingEvent - user missing", "user_id", userID)
			return nil
		}

		if assignment.AssignedAt.IsZero() {
			assignment.AssignedAt = time.Now()
		}
		assignment.UpdatedAt = time.Now()
		user.PendingEvents = user.PendingEvents.Upsert(assignment)

		return r.UpdateEventStateTx(ctx, tx, user)
	})
}
