package entity

import (
	"time"

	eventEntity "duet-api/modules/event/entity"
)

// ChatRoom is the group chat attached to an event. One room per event,
// refreshed whenever the member set or venue changes.
type ChatRoom struct {
	ID        string                  `db:"id" json:"id"`
	EventID   string                  `db:"event_id" json:"event_id"`
	Name      string                  `db:"name" json:"name"`
	MemberIDs eventEntity.StringSlice `db:"member_ids" json:"member_ids"`
	VenueName string                  `db:"venue_name" json:"venue_name"`
	CreatedAt time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt time.Time               `db:"updated_at" json:"updated_at"`
}
