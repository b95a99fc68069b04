package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventEntity "duet-api/modules/event/entity"
)

func TestPairKeyFor_OrderIndependent(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	assert.Equal(t, PairKeyFor(a, b), PairKeyFor(b, a))
	assert.Equal(t, a.String()+"_"+b.String(), PairKeyFor(b, a))
}

func TestDeriveQueueStatus_Priority(t *testing.T) {
	hiking := eventEntity.EventTypeHiking

	tests := []struct {
		name       string
		sufficient bool
		shared     []eventEntity.EventType
		wantStatus QueueStatus
		wantType   *eventEntity.EventType
	}{
		{"insufficient availability wins", false, []eventEntity.EventType{hiking}, QueueStatusAwaitingAvailability, nil},
		{"no shared types", true, nil, QueueStatusAwaitingEventType, nil},
		{"queued with first shared type", true, []eventEntity.EventType{hiking, eventEntity.EventTypeCoffee}, QueueStatusQueued, &hiking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, eventType := DeriveQueueStatus(tt.sufficient, tt.shared)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantType == nil {
				assert.Nil(t, eventType)
			} else {
				require.NotNil(t, eventType)
				assert.Equal(t, *tt.wantType, *eventType)
			}
		})
	}
}

func TestPartnerOf(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	p := &PairMatch{UserAID: a, UserBID: b}

	partner, ok := p.PartnerOf(a)
	require.True(t, ok)
	assert.Equal(t, b, partner)

	_, ok = p.PartnerOf(uuid.New())
	assert.False(t, ok)
}

func TestOverlapDays_TotalSegments(t *testing.T) {
	days := OverlapDays{
		{Date: "2025-10-18", Segments: []string{"morning", "evening"}},
		{Date: "2025-10-19", Segments: []string{"night"}},
	}
	assert.Equal(t, 3, days.TotalSegments())
}
