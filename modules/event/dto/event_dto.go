package dto

import (
	"time"

	"duet-api/modules/event/entity"
)

// VoteRequest carries the participant's venue choice.
type VoteRequest struct {
	VenueOptionID string `json:"venue_option_id" validate:"required"`
}

// ReminderResponseRequest carries the participant's answer to the 48-hour
// reminder.
type ReminderResponseRequest struct {
	Response string `json:"response" validate:"required,oneof=confirm cancel"`
}

const (
	ReminderResponseConfirm = "confirm"
	ReminderResponseCancel  = "cancel"
)

// EventResponse for event details
type EventResponse struct {
	ID                    string                      `json:"id"`
	EventType             entity.EventType            `json:"event_type"`
	Title                 string                      `json:"title"`
	Description           string                      `json:"description"`
	Category              string                      `json:"category"`
	Location              string                      `json:"location"`
	Photos                []string                    `json:"photos"`
	VenueOptions          entity.VenueOptions         `json:"venue_options"`
	VenueVoteTotals       entity.VoteTotals           `json:"venue_vote_totals"`
	VotesSubmittedCount   int                         `json:"votes_submitted_count"`
	FinalVenueOptionID    *string                     `json:"final_venue_option_id,omitempty"`
	ParticipantUserIDs    []string                    `json:"participant_user_ids"`
	ParticipantStatuses   entity.ParticipantStatusMap `json:"participant_statuses"`
	PendingPairMatchIDs   []string                    `json:"pending_pair_match_ids"`
	RequiredPairCount     int                         `json:"required_pair_count"`
	Status                entity.EventStatus          `json:"status"`
	SuggestedTimes        entity.SuggestedTimes       `json:"suggested_times"`
	Date                  time.Time                   `json:"date"`
	ChatRoomID            *string                     `json:"chat_room_id,omitempty"`
	ConfirmationsReceived int                         `json:"confirmations_received"`
	CreatedAt             time.Time                   `json:"created_at"`
	UpdatedAt             time.Time                   `json:"updated_at"`
}

// ToEventResponse maps entity to DTO
func ToEventResponse(e *entity.Event) *EventResponse {
	return &EventResponse{
		ID:                    e.ID,
		EventType:             e.EventType,
		Title:                 e.Title,
		Description:           e.Description,
		Category:              e.Category,
		Location:              e.Location,
		Photos:                e.Photos,
		VenueOptions:          e.VenueOptions,
		VenueVoteTotals:       e.VenueVoteTotals,
		VotesSubmittedCount:   e.VotesSubmittedCount,
		FinalVenueOptionID:    e.FinalVenueOptionID,
		ParticipantUserIDs:    e.ParticipantUserIDs,
		ParticipantStatuses:   e.ParticipantStatuses,
		PendingPairMatchIDs:   e.PendingPairMatchIDs,
		RequiredPairCount:     e.RequiredPairCount,
		Status:                e.Status,
		SuggestedTimes:        e.SuggestedTimes,
		Date:                  e.Date,
		ChatRoomID:            e.ChatRoomID,
		ConfirmationsReceived: e.ConfirmationsReceived,
		CreatedAt:             e.CreatedAt,
		UpdatedAt:             e.UpdatedAt,
	}
}

// ToEventResponses maps a list of entities to DTOs
func ToEventResponses(events []entity.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for i := range events {
		out = append(out, *ToEventResponse(&events[i]))
	}
	return out
}

// ParticipantResponse for a user's own participation record
type ParticipantResponse struct {
	ID                string                   `json:"id"`
	EventID           string                   `json:"event_id"`
	UserID            string                   `json:"user_id"`
	Status            entity.ParticipantStatus `json:"status"`
	VoteVenueOptionID *string                  `json:"vote_venue_option_id,omitempty"`
	JoinedAt          *time.Time               `json:"joined_at,omitempty"`
	ConfirmedAt       *time.Time               `json:"confirmed_at,omitempty"`
	CanceledAt        *time.Time               `json:"canceled_at,omitempty"`
}

// ToParticipantResponse maps entity to DTO
func ToParticipantResponse(p *entity.EventParticipant) *ParticipantResponse {
	return &ParticipantResponse{
		ID:                p.ID,
		EventID:           p.EventID,
		UserID:            p.UserID.String(),
		Status:            p.Status,
		VoteVenueOptionID: p.VoteVenueOptionID,
		JoinedAt:          p.JoinedAt,
		ConfirmedAt:       p.ConfirmedAt,
		CanceledAt:        p.CanceledAt,
	}
}
