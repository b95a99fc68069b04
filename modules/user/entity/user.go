package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	eventEntity "duet-api/modules/event/entity"
)

// DayAvailability is one date's raw availability as submitted by the client.
type DayAvailability struct {
	Morning   bool `json:"morning"`
	Afternoon bool `json:"afternoon"`
	Evening   bool `json:"evening"`
	Night     bool `json:"night"`
	Blocked   bool `json:"blocked"`
}

// AvailabilityMap keys a DayAvailability by date string. Keys arrive in
// whatever format the client sent; normalization happens in the matching
// service, not here.
type AvailabilityMap map[string]DayAvailability

func (m AvailabilityMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(map[string]DayAvailability{})
	}
	return json.Marshal(m)
}

func (m *AvailabilityMap) Scan(value any) error {
	if value == nil {
		*m = AvailabilityMap{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, m)
}

// Interests is stored as a JSONB array of free-text interest strings.
type Interests []string

func (s Interests) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(s)
}

func (s *Interests) Scan(value any) error {
	if value == nil {
		*s = Interests{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, s)
}

// EventAssignment is the per-user bookkeeping entry for one event the user
// is or was attached to.
type EventAssignment struct {
	EventID    string                        `json:"event_id"`
	EventType  eventEntity.EventType         `json:"event_type"`
	Status     eventEntity.ParticipantStatus `json:"status"`
	AssignedAt time.Time                     `json:"assigned_at"`
	UpdatedAt  time.Time                     `json:"updated_at"`
}

type EventAssignments []EventAssignment

func (a EventAssignments) Value() (driver.Value, error) {
	if a == nil {
		return json.Marshal([]EventAssignment{})
	}
	return json.Marshal(a)
}

func (a *EventAssignments) Scan(value any) error {
	if value == nil {
		*a = EventAssignments{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, a)
}

// Upsert replaces any existing assignment for the same event, preserving its
// original AssignedAt, and appends otherwise.
func (a EventAssignments) Upsert(assignment EventAssignment) EventAssignments {
	for i := range a {
		if a[i].EventID == assignment.EventID {
			assignment.AssignedAt = a[i].AssignedAt
			out := make(EventAssignments, len(a))
			copy(out, a)
			out[i] = assignment
			return out
		}
	}
	return append(append(EventAssignments{}, a...), assignment)
}

// HasConflicting reports whether the user already holds a pending or joined
// assignment of the same event type on a different event.
func (a EventAssignments) HasConflicting(eventType eventEntity.EventType, excludeEventID string) bool {
	for _, assignment := range a {
		if assignment.EventID == excludeEventID || assignment.EventType != eventType {
			continue
		}
		if assignment.Status == eventEntity.ParticipantStatusPendingJoin ||
			assignment.Status == eventEntity.ParticipantStatusJoined {
			return true
		}
	}
	return false
}

// User mirrors only the columns this service reads or writes. The rest of
// the user profile belongs to the profile subsystem.
type User struct {
	ID               uuid.UUID                `db:"id" json:"id"`
	Interests        Interests                `db:"interests" json:"interests"`
	Availability     AvailabilityMap          `db:"availability" json:"availability"`
	PendingEvents    EventAssignments         `db:"pending_events" json:"pending_events"`
	JoinedEvents     eventEntity.StringSlice  `db:"joined_events" json:"joined_events"`
	EventCancelCount int                      `db:"event_cancel_count" json:"event_cancel_count"`
	EventBanUntil    *time.Time               `db:"event_ban_until" json:"event_ban_until,omitempty"`
	CreatedAt        time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time                `db:"updated_at" json:"updated_at"`
}

// IsBanned reports whether the user is inside an active ban window.
func (u *User) IsBanned(now time.Time) bool {
	return u.EventBanUntil != nil && u.EventBanUntil.After(now)
}

// ApplyCancelPenalty increments the cancel counter and, on reaching the
// threshold, starts a ban window and resets the counter so a later
// cancellation starts a fresh count.
func (u *User) ApplyCancelPenalty(now time.Time, threshold int, banDuration time.Duration) {
	u.EventCancelCount++
	if u.EventCancelCount >= threshold {
		until := now.Add(banDuration)
		u.EventBanUntil = &until
		u.EventCancelCount = 0
	}
}
