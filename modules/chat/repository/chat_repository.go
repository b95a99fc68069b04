package repository

import (
	"context"
	"database/sql"

	"duet-api/core/database"
	"duet-api/core/logger"
	"duet-api/modules/chat/entity"
)

// ChatRoomRepository handles chat_rooms persistence.
type ChatRoomRepository struct {
	DB database.Database
}

func NewChatRoomRepository(db database.Database) *ChatRoomRepository {
	return &ChatRoomRepository{DB: db}
}

type ChatRoomRepositoryInterface interface {
	GetByEventID(ctx context.Context, eventID string) (*entity.ChatRoom, error)
	Create(ctx context.Context, room *entity.ChatRoom) error
	Update(ctx context.Context, room *entity.ChatRoom) error
}

func (r *ChatRoomRepository) GetByEventID(ctx context.Context, eventID string) (*entity.ChatRoom, error) {
	query := `
		SELECT id, event_id, name, member_ids, venue_name, created_at, updated_at
		FROM chat_rooms
		WHERE event_id = $1
	`

	var room entity.ChatRoom
	err := r.DB.GetContext(ctx, &room, query, eventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("ChatRoomRepository:GetByEventID", err)
		return nil, err
	}
	return &room, nil
}

func (r *ChatRoomRepository) Create(ctx context.Context, room *entity.ChatRoom) error {
	query := `
		INSERT INTO chat_rooms (id, event_id, name, member_ids, venue_name, created_at, updated_at)
		VALUES (:id, :event_id, :name, :member_ids, :venue_name, NOW(), NOW())
	`

	_, err := r.DB.NamedExecContext(ctx, query, room)
	if err != nil {
		logger.Error("ChatRoomRepository:Create", err)
		return err
	}
	return nil
}

func (r *ChatRoomRepository) Update(ctx context.Context, room *entity.ChatRoom) error {
	query := `
		UPDATE chat_rooms
		SET name = :name,
		    member_ids = :member_ids,
		    venue_name = :venue_name,
		    updated_at = NOW()
		WHERE id = :id
	`

	_, err := r.DB.NamedExecContext(ctx, query, room)
	if err != nil {
		logger.Error("ChatRoomRepository:Update", err)
		return err
	}
	return nil
}
