package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// EventStatus is the derived lifecycle state of an event. It is never set
// directly by callers; every mutating operation recomputes it from the
// participant statuses and the finalized venue (see DeriveEventStatus).
type EventStatus string

const (
	EventStatusPendingJoin EventStatus = "pending_join"
	EventStatusReady       EventStatus = "ready"
	EventStatusConfirmed   EventStatus = "confirmed"
	// EventStatusCanceled is reserved; nothing in this service produces it.
	EventStatusCanceled EventStatus = "canceled"
)

// ParticipantStatus is a user's per-event state.
type ParticipantStatus string

const (
	ParticipantStatusPendingJoin ParticipantStatus = "pending_join"
	ParticipantStatusJoined      ParticipantStatus = "joined"
	ParticipantStatusConfirmed   ParticipantStatus = "confirmed"
	ParticipantStatusCanceled    ParticipantStatus = "canceled"
	ParticipantStatusRemoved     ParticipantStatus = "removed"
	// ParticipantStatusCompleted is a reserved terminal state.
	ParticipantStatusCompleted ParticipantStatus = "completed"
)

// Active reports whether the participant still counts toward the event
// (not canceled or removed).
func (s ParticipantStatus) Active() bool {
	return s != ParticipantStatusCanceled && s != ParticipantStatusRemoved
}

// VenueOption is one candidate venue subject to participant voting.
type VenueOption struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Address  string   `json:"address,omitempty"`
	Location string   `json:"location,omitempty"`
	Photos   []string `json:"photos,omitempty"`
}

type VenueOptions []VenueOption

func (v VenueOptions) Value() (driver.Value, error) {
	if v == nil {
		return json.Marshal([]VenueOption{})
	}
	return json.Marshal(v)
}

func (v *VenueOptions) Scan(value any) error {
	if value == nil {
		*v = VenueOptions{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, v)
}

// ByID returns the option with the given id, or nil.
func (v VenueOptions) ByID(id string) *VenueOption {
	for i := range v {
		if v[i].ID == id {
			return &v[i]
		}
	}
	return nil
}

// VoteTotals maps venue option id to its current vote count.
type VoteTotals map[string]int

func (t VoteTotals) Value() (driver.Value, error) {
	if t == nil {
		return json.Marshal(map[string]int{})
	}
	return json.Marshal(t)
}

func (t *VoteTotals) Scan(value any) error {
	if value == nil {
		*t = VoteTotals{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, t)
}

// ParticipantStatusMap maps user id to that user's status on the event.
type ParticipantStatusMap map[string]ParticipantStatus

func (m ParticipantStatusMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(map[string]ParticipantStatus{})
	}
	return json.Marshal(m)
}

func (m *ParticipantStatusMap) Scan(value any) error {
	if value == nil {
		*m = ParticipantStatusMap{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, m)
}

// StringSlice is stored as a JSONB array.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, s)
}

func (s StringSlice) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// Remove returns the slice without v.
func (s StringSlice) Remove(v string) StringSlice {
	out := make(StringSlice, 0, len(s))
	for _, item := range s {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}

// SuggestedTime is one candidate day with the segments every contributing
// pair has free.
type SuggestedTime struct {
	Date     string   `json:"date"`
	Segments []string `json:"segments"`
}

type SuggestedTimes []SuggestedTime

func (t SuggestedTimes) Value() (driver.Value, error) {
	if t == nil {
		return json.Marshal([]SuggestedTime{})
	}
	return json.Marshal(t)
}

func (t *SuggestedTimes) Scan(value any) error {
	if value == nil {
		*t = SuggestedTimes{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, t)
}

// Event is one system-organized social event instance.
type Event struct {
	ID                    string               `db:"id" json:"id"`
	EventType             EventType            `db:"event_type" json:"event_type"`
	Title                 string               `db:"title" json:"title"`
	Description           string               `db:"description" json:"description"`
	Category              string               `db:"category" json:"category"`
	Location              string               `db:"location" json:"location"`
	Photos                StringSlice          `db:"photos" json:"photos"`
	VenueOptions          VenueOptions         `db:"venue_options" json:"venue_options"`
	VenueVoteTotals       VoteTotals           `db:"venue_vote_totals" json:"venue_vote_totals"`
	VotesSubmittedCount   int                  `db:"votes_submitted_count" json:"votes_submitted_count"`
	FinalVenueOptionID    *string              `db:"final_venue_option_id" json:"final_venue_option_id,omitempty"`
	ParticipantUserIDs    StringSlice          `db:"participant_user_ids" json:"participant_user_ids"`
	ParticipantStatuses   ParticipantStatusMap `db:"participant_statuses" json:"participant_statuses"`
	PendingPairMatchIDs   StringSlice          `db:"pending_pair_match_ids" json:"pending_pair_match_ids"`
	RequiredPairCount     int                  `db:"required_pair_count" json:"required_pair_count"`
	Status                EventStatus          `db:"status" json:"status"`
	SuggestedTimes        SuggestedTimes       `db:"suggested_times" json:"suggested_times"`
	Date                  time.Time            `db:"event_date" json:"date"`
	ReminderSent          bool                 `db:"reminder_sent" json:"reminder_sent"`
	ReminderSentAt        *time.Time           `db:"reminder_sent_at" json:"reminder_sent_at,omitempty"`
	ChatRoomID            *string              `db:"chat_room_id" json:"chat_room_id,omitempty"`
	ConfirmationsReceived int                  `db:"confirmations_received" json:"confirmations_received"`
	CreatedAt             time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time            `db:"updated_at" json:"updated_at"`
}

// ActiveParticipantIDs returns the user ids whose status still counts toward
// the event, preserving participant order.
func (e *Event) ActiveParticipantIDs() []string {
	ids := make([]string, 0, len(e.ParticipantUserIDs))
	for _, id := range e.ParticipantUserIDs {
		if status, ok := e.ParticipantStatuses[id]; ok && status.Active() {
			ids = append(ids, id)
		}
	}
	return ids
}

// JoinedParticipantIDs returns the user ids currently in the joined state.
func (e *Event) JoinedParticipantIDs() []string {
	ids := make([]string, 0, len(e.ParticipantUserIDs))
	for _, id := range e.ParticipantUserIDs {
		if e.ParticipantStatuses[id] == ParticipantStatusJoined {
			ids = append(ids, id)
		}
	}
	return ids
}

// CountConfirmations counts participants that have confirmed (or completed).
func CountConfirmations(statuses ParticipantStatusMap) int {
	n := 0
	for _, s := range statuses {
		if s == ParticipantStatusConfirmed || s == ParticipantStatusCompleted {
			n++
		}
	}
	return n
}

// DeriveEventStatus recomputes the event status from the authoritative
// participant statuses. An emptied event reverts to pending_join; a fully
// confirmed one is confirmed; otherwise a finalized venue keeps it ready and
// anything else leaves the current status untouched.
func DeriveEventStatus(statuses ParticipantStatusMap, venueFinalized bool, current EventStatus) EventStatus {
	active := 0
	settled := 0
	for _, s := range statuses {
		if !s.Active() {
			continue
		}
		active++
		if s == ParticipantStatusConfirmed || s == ParticipantStatusCompleted {
			settled++
		}
	}

	if active == 0 {
		return EventStatusPendingJoin
	}
	if settled == active {
		return EventStatusConfirmed
	}
	if venueFinalized {
		return EventStatusReady
	}
	return current
}
