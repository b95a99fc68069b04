package dto

import (
	"time"

	"duet-api/modules/matching/entity"
	eventEntity "duet-api/modules/event/entity"
)

// UpsertPairRequest is fired by the swipe subsystem on a mutual like.
type UpsertPairRequest struct {
	UserAID string `json:"user_a_id" validate:"required"`
	UserBID string `json:"user_b_id" validate:"required"`
}

// PairMatchResponse for pair match details
type PairMatchResponse struct {
	ID                        string                     `json:"id"`
	PairKey                   string                     `json:"pair_key"`
	UserIDs                   []string                   `json:"user_ids"`
	Status                    string                     `json:"status"`
	QueueStatus               string                     `json:"queue_status"`
	QueueEventType            *eventEntity.EventType     `json:"queue_event_type,omitempty"`
	SuggestedEventType        *eventEntity.EventType     `json:"suggested_event_type,omitempty"`
	SharedEventTypes          eventEntity.EventTypeSlice `json:"shared_event_types"`
	AvailabilityOverlapCount  int                        `json:"availability_overlap_count"`
	OverlapSegments           entity.OverlapDays         `json:"availability_overlap_segments"`
	HasSufficientAvailability bool                       `json:"has_sufficient_availability"`
	PendingEventID            *string                    `json:"pending_event_id,omitempty"`
	UpdatedAt                 time.Time                  `json:"updated_at"`
}

// ToPairMatchResponse maps entity to DTO
func ToPairMatchResponse(p *entity.PairMatch) *PairMatchResponse {
	return &PairMatchResponse{
		ID:                        p.ID,
		PairKey:                   p.PairKey,
		UserIDs:                   []string{p.UserAID.String(), p.UserBID.String()},
		Status:                    string(p.Status),
		QueueStatus:               string(p.QueueStatus),
		QueueEventType:            p.QueueEventType,
		SuggestedEventType:        p.SuggestedEventType,
		SharedEventTypes:          p.SharedEventTypes,
		AvailabilityOverlapCount:  p.AvailabilityOverlapCount,
		OverlapSegments:           p.AvailabilityOverlapSegments,
		HasSufficientAvailability: p.HasSufficientAvailability,
		PendingEventID:            p.PendingEventID,
		UpdatedAt:                 p.UpdatedAt,
	}
}
