package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventParticipant is the per-(event, user) record. It is the source of
// truth for who voted for what; the event's vote totals are a denormalized
// tally maintained alongside it.
type EventParticipant struct {
	ID                string            `db:"id" json:"id"`
	EventID           string            `db:"event_id" json:"event_id"`
	UserID            uuid.UUID         `db:"user_id" json:"user_id"`
	Status            ParticipantStatus `db:"status" json:"status"`
	VoteVenueOptionID *string           `db:"vote_venue_option_id" json:"vote_venue_option_id,omitempty"`
	JoinedAt          *time.Time        `db:"joined_at" json:"joined_at,omitempty"`
	ConfirmedAt       *time.Time        `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CanceledAt        *time.Time        `db:"canceled_at" json:"canceled_at,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// ParticipantID builds the deterministic participant record id.
func ParticipantID(eventID string, userID uuid.UUID) string {
	return fmt.Sprintf("%s_%s", eventID, userID)
}
