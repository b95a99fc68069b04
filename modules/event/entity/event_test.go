package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveEventStatus_EmptyRevertsToPendingJoin(t *testing.T) {
	statuses := ParticipantStatusMap{
		"u1": ParticipantStatusCanceled,
		"u2": ParticipantStatusRemoved,
	}

	got := DeriveEventStatus(statuses, true, EventStatusReady)
	assert.Equal(t, EventStatusPendingJoin, got)
}

func TestDeriveEventStatus_AllConfirmed(t *testing.T) {
	statuses := ParticipantStatusMap{
		"u1": ParticipantStatusConfirmed,
		"u2": ParticipantStatusConfirmed,
		"u3": ParticipantStatusCanceled, // inactive, must not block
	}

	got := DeriveEventStatus(statuses, false, EventStatusReady)
	assert.Equal(t, EventStatusConfirmed, got)
}

func TestDeriveEventStatus_FinalizedVenueKeepsReady(t *testing.T) {
	statuses := ParticipantStatusMap{
		"u1": ParticipantStatusConfirmed,
		"u2": ParticipantStatusJoined,
	}

	got := DeriveEventStatus(statuses, true, EventStatusConfirmed)
	assert.Equal(t, EventStatusReady, got)
}

func TestDeriveEventStatus_NoVenueLeavesCurrent(t *testing.T) {
	statuses := ParticipantStatusMap{
		"u1": ParticipantStatusJoined,
		"u2": ParticipantStatusPendingJoin,
	}

	got := DeriveEventStatus(statuses, false, EventStatusPendingJoin)
	assert.Equal(t, EventStatusPendingJoin, got)
}

func TestCountConfirmations(t *testing.T) {
	statuses := ParticipantStatusMap{
		"u1": ParticipantStatusConfirmed,
		"u2": ParticipantStatusCompleted,
		"u3": ParticipantStatusJoined,
		"u4": ParticipantStatusCanceled,
	}

	assert.Equal(t, 2, CountConfirmations(statuses))
}

func TestActiveParticipantIDs_PreservesOrder(t *testing.T) {
	e := &Event{
		ParticipantUserIDs: StringSlice{"a", "b", "c", "d"},
		ParticipantStatuses: ParticipantStatusMap{
			"a": ParticipantStatusJoined,
			"b": ParticipantStatusCanceled,
			"c": ParticipantStatusConfirmed,
			"d": ParticipantStatusPendingJoin,
		},
	}

	assert.Equal(t, []string{"a", "c", "d"}, e.ActiveParticipantIDs())
	assert.Equal(t, []string{"a"}, e.JoinedParticipantIDs())
}

func TestStringSlice_Remove(t *testing.T) {
	s := StringSlice{"a", "b", "c"}
	assert.Equal(t, StringSlice{"a", "c"}, s.Remove("b"))
	assert.Equal(t, StringSlice{"a", "b", "c"}, s.Remove("x"))
}

func TestVenueOptions_ByID(t *testing.T) {
	opts := VenueOptions{
		{ID: "hiking-0-carbon-canyon", Name: "Carbon Canyon"},
		{ID: "hiking-1-peters-canyon", Name: "Peters Canyon"},
	}

	assert.Equal(t, "Peters Canyon", opts.ByID("hiking-1-peters-canyon").Name)
	assert.Nil(t, opts.ByID("missing"))
}
