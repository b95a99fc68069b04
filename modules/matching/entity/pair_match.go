package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	eventEntity "duet-api/modules/event/entity"
)

// PairStatus is the record-level state of a pair match.
type PairStatus string

const (
	PairStatusActive   PairStatus = "active"
	PairStatusInactive PairStatus = "inactive"
)

// QueueStatus is a pair's readiness state for event assignment.
type QueueStatus string

const (
	QueueStatusAwaitingAvailability QueueStatus = "awaiting_availability"
	QueueStatusAwaitingEventType    QueueStatus = "awaiting_event_type"
	QueueStatusQueued               QueueStatus = "queued"
	QueueStatusInEvent              QueueStatus = "in_event"
	QueueStatusSidelined            QueueStatus = "sidelined"
)

// OverlapDay is one day both users have free, with the shared segments.
type OverlapDay struct {
	Date     string   `json:"date"`
	Segments []string `json:"segments"`
}

type OverlapDays []OverlapDay

func (d OverlapDays) Value() (driver.Value, error) {
	if d == nil {
		return json.Marshal([]OverlapDay{})
	}
	return json.Marshal(d)
}

func (d *OverlapDays) Scan(value any) error {
	if value == nil {
		*d = OverlapDays{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, d)
}

// TotalSegments sums the per-day segment counts.
func (d OverlapDays) TotalSegments() int {
	n := 0
	for _, day := range d {
		n += len(day.Segments)
	}
	return n
}

// PairMatch is the matched-and-mutually-liked relationship between two
// users, queued toward an event. user_a_id is always the smaller of the two
// ids so the pair key is deterministic.
type PairMatch struct {
	ID                          string                      `db:"id" json:"id"`
	PairKey                     string                      `db:"pair_key" json:"pair_key"`
	UserAID                     uuid.UUID                   `db:"user_a_id" json:"user_a_id"`
	UserBID                     uuid.UUID                   `db:"user_b_id" json:"user_b_id"`
	Status                      PairStatus                  `db:"status" json:"status"`
	QueueStatus                 QueueStatus                 `db:"queue_status" json:"queue_status"`
	QueueEventType              *eventEntity.EventType      `db:"queue_event_type" json:"queue_event_type,omitempty"`
	SuggestedEventType          *eventEntity.EventType      `db:"suggested_event_type" json:"suggested_event_type,omitempty"`
	SharedEventTypes            eventEntity.EventTypeSlice  `db:"shared_event_types" json:"shared_event_types"`
	AvailabilityOverlapCount    int                         `db:"availability_overlap_count" json:"availability_overlap_count"`
	AvailabilityOverlapSegments OverlapDays                 `db:"availability_overlap_segments" json:"availability_overlap_segments"`
	AvailabilityComputedAt      time.Time                   `db:"availability_computed_at" json:"availability_computed_at"`
	HasSufficientAvailability   bool                        `db:"has_sufficient_availability" json:"has_sufficient_availability"`
	PendingEventID              *string                     `db:"pending_event_id" json:"pending_event_id,omitempty"`
	CreatedAt                   time.Time                   `db:"created_at" json:"created_at"`
	UpdatedAt                   time.Time                   `db:"updated_at" json:"updated_at"`
	LastActivityAt              time.Time                   `db:"last_activity_at" json:"last_activity_at"`
}

// SortUserIDs orders two user ids ascending by their string form.
func SortUserIDs(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

// PairKeyFor builds the deterministic uniqueness key for an unordered pair.
func PairKeyFor(a, b uuid.UUID) string {
	lo, hi := SortUserIDs(a, b)
	return fmt.Sprintf("%s_%s", lo, hi)
}

// ContainsUser reports whether userID is one of the pair's members.
func (p *PairMatch) ContainsUser(userID uuid.UUID) bool {
	return p.UserAID == userID || p.UserBID == userID
}

// PartnerOf returns the other member of the pair.
func (p *PairMatch) PartnerOf(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case p.UserAID:
		return p.UserBID, true
	case p.UserBID:
		return p.UserAID, true
	}
	return uuid.Nil, false
}

// DeriveQueueStatus computes the availability/interest-driven queue status.
// in_event and sidelined are orchestration side effects and never come out
// of this derivation.
func DeriveQueueStatus(hasSufficientAvailability bool, shared []eventEntity.EventType) (QueueStatus, *eventEntity.EventType) {
	if !hasSufficientAvailability {
		return QueueStatusAwaitingAvailability, nil
	}
	if len(shared) == 0 {
		return QueueStatusAwaitingEventType, nil
	}
	first := shared[0]
	return QueueStatusQueued, &first
}
