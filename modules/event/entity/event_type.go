package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// EventType is one of the fixed social-activity categories the system can
// organize events for.
type EventType string

const (
	EventTypeCoffee     EventType = "coffee"
	EventTypeBar        EventType = "bar"
	EventTypeRestaurant EventType = "restaurant"
	EventTypeTennis     EventType = "tennis"
	EventTypeDogWalking EventType = "dog_walking"
	EventTypeHiking     EventType = "hiking"
)

// AllEventTypes is the fixed processing order for queue runs.
var AllEventTypes = []EventType{
	EventTypeCoffee,
	EventTypeBar,
	EventTypeRestaurant,
	EventTypeTennis,
	EventTypeDogWalking,
	EventTypeHiking,
}

func (t EventType) Valid() bool {
	switch t {
	case EventTypeCoffee, EventTypeBar, EventTypeRestaurant,
		EventTypeTennis, EventTypeDogWalking, EventTypeHiking:
		return true
	}
	return false
}

// EventTypeSlice is stored as a JSONB array.
type EventTypeSlice []EventType

func (s EventTypeSlice) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]EventType{})
	}
	return json.Marshal(s)
}

func (s *EventTypeSlice) Scan(value any) error {
	if value == nil {
		*s = EventTypeSlice{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, s)
}
