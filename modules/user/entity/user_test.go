package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventEntity "duet-api/modules/event/entity"
)

func TestUser_IsBanned(t *testing.T) {
	now := time.Now()

	u := &User{}
	assert.False(t, u.IsBanned(now))

	past := now.Add(-time.Hour)
	u.EventBanUntil = &past
	assert.False(t, u.IsBanned(now))

	future := now.Add(time.Hour)
	u.EventBanUntil = &future
	assert.True(t, u.IsBanned(now))
}

func TestUser_ApplyCancelPenalty(t *testing.T) {
	now := time.Now()
	u := &User{}

	u.ApplyCancelPenalty(now, 3, 7*24*time.Hour)
	u.ApplyCancelPenalty(now, 3, 7*24*time.Hour)
	assert.Equal(t, 2, u.EventCancelCount)
	assert.Nil(t, u.EventBanUntil)

	// Third cancellation bans for 7 days and resets the counter.
	u.ApplyCancelPenalty(now, 3, 7*24*time.Hour)
	require.NotNil(t, u.EventBanUntil)
	assert.WithinDuration(t, now.Add(7*24*time.Hour), *u.EventBanUntil, time.Second)
	assert.Equal(t, 0, u.EventCancelCount)

	// A fourth behaves like a first.
	u.ApplyCancelPenalty(now, 3, 7*24*time.Hour)
	assert.Equal(t, 1, u.EventCancelCount)
}

func TestEventAssignments_Upsert_ReplacesNotDuplicates(t *testing.T) {
	assigned := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	assignments := EventAssignments{
		{EventID: "e1", EventType: eventEntity.EventTypeHiking, Status: eventEntity.ParticipantStatusPendingJoin, AssignedAt: assigned},
	}

	updated := assignments.Upsert(EventAssignment{
		EventID:    "e1",
		EventType:  eventEntity.EventTypeHiking,
		Status:     eventEntity.ParticipantStatusJoined,
		AssignedAt: time.Now(),
	})

	require.Len(t, updated, 1)
	assert.Equal(t, eventEntity.ParticipantStatusJoined, updated[0].Status)
	// Original assignment time survives the replace.
	assert.Equal(t, assigned, updated[0].AssignedAt)

	grown := updated.Upsert(EventAssignment{EventID: "e2", EventType: eventEntity.EventTypeCoffee})
	assert.Len(t, grown, 2)
}

func TestEventAssignments_HasConflicting(t *testing.T) {
	assignments := EventAssignments{
		{EventID: "e1", EventType: eventEntity.EventTypeHiking, Status: eventEntity.ParticipantStatusJoined},
		{EventID: "e2", EventType: eventEntity.EventTypeCoffee, Status: eventEntity.ParticipantStatusCanceled},
	}

	// Same type, different event, live assignment.
	assert.True(t, assignments.HasConflicting(eventEntity.EventTypeHiking, "other"))
	// Same event is not a conflict.
	assert.False(t, assignments.HasConflicting(eventEntity.EventTypeHiking, "e1"))
	// Canceled assignments never conflict.
	assert.False(t, assignments.HasConflicting(eventEntity.EventTypeCoffee, "other"))
	// Different type.
	assert.False(t, assignments.HasConflicting(eventEntity.EventTypeTennis, "other"))
}
