package service

import (
	"context"
	"fmt"

	"duet-api/core/logger"
	"duet-api/core/utils"
	"duet-api/modules/chat/entity"
	"duet-api/modules/chat/repository"
	eventEntity "duet-api/modules/event/entity"
)

// ChatService provisions group chats for events that reached a final venue.
// Messaging itself lives elsewhere; this only guarantees a room exists and
// its member list matches the event.
type ChatService struct {
	repo repository.ChatRoomRepositoryInterface
}

type ChatServiceInterface interface {
	CreateOrUpdateChatForEvent(ctx context.Context, event *eventEntity.Event, memberIDs []string, venue *eventEntity.VenueOption) (string, error)
}

func NewChatService(repo repository.ChatRoomRepositoryInterface) ChatServiceInterface {
	return &ChatService{repo: repo}
}

// CreateOrUpdateChatForEvent upserts the room keyed by event ID and returns
// its ID. Called again after membership changes to keep the roster current.
func (s *ChatService) CreateOrUpdateChatForEvent(ctx context.Context, event *eventEntity.Event, memberIDs []string, venue *eventEntity.VenueOption) (string, error) {
	name := event.Title
	venueName := ""
	if venue != nil {
		venueName = venue.Name
		name = fmt.Sprintf("%s @ %s", event.Title, venue.Name)
	}

	room, err := s.repo.GetByEventID(ctx, event.ID)
	if err != nil {
		return "", err
	}

	if room == nil {
		room = &entity.ChatRoom{
			ID:        utils.GenerateID(),
			EventID:   event.ID,
			Name:      name,
			MemberIDs: eventEntity.StringSlice(memberIDs),
			VenueName: venueName,
		}
		if err := s.repo.Create(ctx, room); err != nil {
			return "", err
		}
		logger.Info("ChatService:CreateOrUpdateChatForEvent - created room", "room_id", room.ID, "event_id", event.ID)
		return room.ID, nil
	}

	room.Name = name
	room.MemberIDs = eventEntity.StringSlice(memberIDs)
	room.VenueName = venueName
	if err := s.repo.Update(ctx, room); err != nil {
		return "", err
	}
	return room.ID, nil
}
