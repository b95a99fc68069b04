package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duet-api/core/config"
	"duet-api/modules/event/entity"
	matchingEntity "duet-api/modules/matching/entity"
)

func TestNewConfigTemplateProviderFallsBack(t *testing.T) {
	provider := NewConfigTemplateProvider(config.EventsConfig{})

	for _, eventType := range entity.AllEventTypes {
		templates := provider.TemplatesByType(eventType)
		require.Len(t, templates, 1, "missing fallback for %s", eventType)
		assert.Equal(t, eventType, templates[0].EventType)
		assert.NotNil(t, templates[0].Venue)
	}
}

func TestNewConfigTemplateProviderPrefersConfigured(t *testing.T) {
	cfg := config.EventsConfig{
		Templates: []config.EventTemplateConfig{
			{
				EventType: "hiking",
				Title:     "Sunrise Hike",
				GroupSize: 6,
				Venues: []config.VenueConfig{
					{Name: "Carbon Canyon"},
					{Name: "Eaton Canyon"},
				},
			},
			{EventType: "bogus", Title: "ignored"},
		},
	}

	provider := NewConfigTemplateProvider(cfg)

	templates := provider.TemplatesByType(entity.EventTypeHiking)
	require.Len(t, templates, 1)
	assert.Equal(t, "Sunrise Hike", templates[0].Title)
	assert.Len(t, provider.VenuesForType(entity.EventTypeHiking), 2)
}

func TestPairsRequired(t *testing.T) {
	assert.Equal(t, 2, PairsRequired(EventTemplate{GroupSize: 4}))
	assert.Equal(t, 3, PairsRequired(EventTemplate{GroupSize: 6}))
	assert.Equal(t, 1, PairsRequired(EventTemplate{GroupSize: 0}))
	assert.Equal(t, 1, PairsRequired(EventTemplate{GroupSize: 1}))
}

func TestVenueOptionID(t *testing.T) {
	assert.Equal(t, "hiking-0-carbon-canyon", VenueOptionID(entity.EventTypeHiking, 0, "Carbon Canyon"))
	assert.Equal(t, "bar-2-the-blind-pig", VenueOptionID(entity.EventTypeBar, 2, "The Blind Pig"))
}

func TestBuildVenueOptionsCapsAtThree(t *testing.T) {
	cfg := config.EventsConfig{
		Templates: []config.EventTemplateConfig{
			{
				EventType: "coffee",
				GroupSize: 4,
				Venues: []config.VenueConfig{
					{Name: "One"}, {Name: "Two"}, {Name: "Three"}, {Name: "Four"},
				},
			},
		},
	}
	provider := NewConfigTemplateProvider(cfg)
	tmpl, ok := FirstTemplate(provider, entity.EventTypeCoffee)
	require.True(t, ok)

	options := BuildVenueOptions(provider, entity.EventTypeCoffee, tmpl)
	require.Len(t, options, 3)
	assert.Equal(t, "coffee-0-one", options[0].ID)
	assert.Equal(t, "coffee-2-three", options[2].ID)
}

func TestBuildVenueOptionsFallsBackToTemplateVenue(t *testing.T) {
	provider := NewConfigTemplateProvider(config.EventsConfig{})
	tmpl, ok := FirstTemplate(provider, entity.EventTypeTennis)
	require.True(t, ok)

	options := BuildVenueOptions(provider, entity.EventTypeTennis, tmpl)
	require.Len(t, options, 1)
	assert.Equal(t, "tennis-0-public-tennis-courts", options[0].ID)
	assert.Equal(t, "Public Tennis Courts", options[0].Name)
}

func TestBuildSuggestedTimes(t *testing.T) {
	pairs := []matchingEntity.PairMatch{
		{AvailabilityOverlapSegments: matchingEntity.OverlapDays{
			{Date: "2026-09-12", Segments: []string{"evening", "morning"}},
			{Date: "2026-09-10", Segments: []string{"afternoon"}},
		}},
		{AvailabilityOverlapSegments: matchingEntity.OverlapDays{
			{Date: "2026-09-12", Segments: []string{"morning", "night"}},
		}},
	}

	times := BuildSuggestedTimes(pairs)
	require.Len(t, times, 2)
	assert.Equal(t, "2026-09-10", times[0].Date)
	assert.Equal(t, []string{"afternoon"}, times[0].Segments)
	assert.Equal(t, "2026-09-12", times[1].Date)
	assert.Equal(t, []string{"morning", "evening", "night"}, times[1].Segments)
}

func TestBuildSuggestedTimesCapsDates(t *testing.T) {
	pair := matchingEntity.PairMatch{AvailabilityOverlapSegments: matchingEntity.OverlapDays{
		{Date: "2026-09-16", Segments: []string{"morning"}},
		{Date: "2026-09-11", Segments: []string{"morning"}},
		{Date: "2026-09-12", Segments: []string{"morning"}},
		{Date: "2026-09-13", Segments: []string{"morning"}},
		{Date: "2026-09-14", Segments: []string{"morning"}},
		{Date: "2026-09-15", Segments: []string{"morning"}},
	}}

	times := BuildSuggestedTimes([]matchingEntity.PairMatch{pair})
	require.Len(t, times, 5)
	assert.Equal(t, "2026-09-11", times[0].Date)
	assert.Equal(t, "2026-09-15", times[4].Date)
}
