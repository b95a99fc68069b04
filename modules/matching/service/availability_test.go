package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duet-api/modules/matching/entity"
	userEntity "duet-api/modules/user/entity"
)

var testNow = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

func TestComputeOverlap_SpecExample(t *testing.T) {
	a := userEntity.AvailabilityMap{
		"2025-10-18": {Morning: true, Evening: true},
	}
	b := userEntity.AvailabilityMap{
		"2025-10-18": {Morning: true, Evening: true, Afternoon: true},
	}

	overlap := ComputeOverlap(a, b, testNow)
	require.Len(t, overlap, 1)
	assert.Equal(t, "2025-10-18", overlap[0].Date)
	assert.Equal(t, []string{"morning", "evening"}, overlap[0].Segments)
	assert.Equal(t, 2, overlap.TotalSegments())
	assert.True(t, HasSufficientAvailability(overlap.TotalSegments()))
}

func TestComputeOverlap_Symmetric(t *testing.T) {
	a := userEntity.AvailabilityMap{
		"2025-10-18": {Morning: true, Night: true},
		"2025-10-20": {Afternoon: true},
		"2025-10-21": {Evening: true, Blocked: true},
	}
	b := userEntity.AvailabilityMap{
		"2025-10-18": {Morning: true, Afternoon: true, Night: true},
		"2025-10-21": {Evening: true},
		"2025-10-25": {Morning: true},
	}

	assert.Equal(t, ComputeOverlap(a, b, testNow), ComputeOverlap(b, a, testNow))
}

func TestComputeOverlap_BlockedDaySkipped(t *testing.T) {
	a := userEntity.AvailabilityMap{"2025-10-18": {Morning: true}}
	b := userEntity.AvailabilityMap{"2025-10-18": {Morning: true, Blocked: true}}

	assert.Empty(t, ComputeOverlap(a, b, testNow))
}

func TestComputeOverlap_PastDatesDropped(t *testing.T) {
	a := userEntity.AvailabilityMap{
		"2025-09-30": {Morning: true},
		"2025-10-01": {Morning: true}, // today stays
	}
	b := userEntity.AvailabilityMap{
		"2025-09-30": {Morning: true},
		"2025-10-01": {Morning: true},
	}

	overlap := ComputeOverlap(a, b, testNow)
	require.Len(t, overlap, 1)
	assert.Equal(t, "2025-10-01", overlap[0].Date)
}

func TestComputeOverlap_SortedByDate(t *testing.T) {
	a := userEntity.AvailabilityMap{
		"2025-10-20": {Evening: true},
		"2025-10-05": {Morning: true},
	}
	b := userEntity.AvailabilityMap{
		"2025-10-20": {Evening: true},
		"2025-10-05": {Morning: true},
	}

	overlap := ComputeOverlap(a, b, testNow)
	require.Len(t, overlap, 2)
	assert.Equal(t, "2025-10-05", overlap[0].Date)
	assert.Equal(t, "2025-10-20", overlap[1].Date)
}

func TestNormalizeAvailability_RekeysTimestamps(t *testing.T) {
	raw := userEntity.AvailabilityMap{
		"2025-10-18T00:00:00Z": {Morning: true},
		"not-a-date":           {Morning: true},
	}

	normalized := NormalizeAvailability(raw, testNow)
	require.Len(t, normalized, 1)
	_, ok := normalized["2025-10-18"]
	assert.True(t, ok)
}

func TestHasSufficientAvailability_Boundary(t *testing.T) {
	assert.False(t, HasSufficientAvailability(0))
	assert.False(t, HasSufficientAvailability(1))
	assert.True(t, HasSufficientAvailability(2))
	assert.True(t, HasSufficientAvailability(3))
}

func TestOverlapDays_TotalSegmentsAcrossDays(t *testing.T) {
	a := userEntity.AvailabilityMap{
		"2025-10-18": {Morning: true},
		"2025-10-19": {Night: true},
	}
	b := userEntity.AvailabilityMap{
		"2025-10-18": {Morning: true},
		"2025-10-19": {Night: true},
	}

	overlap := ComputeOverlap(a, b, testNow)
	assert.Equal(t, entity.OverlapDays{
		{Date: "2025-10-18", Segments: []string{"morning"}},
		{Date: "2025-10-19", Segments: []string{"night"}},
	}, overlap)
	assert.Equal(t, 2, overlap.TotalSegments())
}
