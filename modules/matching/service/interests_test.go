package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	eventEntity "duet-api/modules/event/entity"
)

func TestEventTypesForInterests_OrderAndDedup(t *testing.T) {
	got := EventTypesForInterests([]string{"Coffee Date", "Hiking", "Coffee", "Knitting"})

	assert.Equal(t, []eventEntity.EventType{
		eventEntity.EventTypeCoffee,
		eventEntity.EventTypeHiking,
	}, got)
}

func TestEventTypesForInterests_UnknownIgnored(t *testing.T) {
	assert.Empty(t, EventTypesForInterests([]string{"Knitting", "Astrology"}))
	assert.Empty(t, EventTypesForInterests(nil))
}

func TestSharedEventTypes_SpecExample(t *testing.T) {
	got := SharedEventTypes([]string{"Hiking", "Coffee Date"}, []string{"Hiking"})
	assert.Equal(t, []eventEntity.EventType{eventEntity.EventTypeHiking}, got)
}

func TestSharedEventTypes_PreservesFirstArgOrder(t *testing.T) {
	a := []string{"Bars", "Tennis", "Hiking"}
	b := []string{"Hiking", "Bars"}

	assert.Equal(t, []eventEntity.EventType{
		eventEntity.EventTypeBar,
		eventEntity.EventTypeHiking,
	}, SharedEventTypes(a, b))

	// The opposite direction derives in b's order.
	assert.Equal(t, []eventEntity.EventType{
		eventEntity.EventTypeHiking,
		eventEntity.EventTypeBar,
	}, SharedEventTypes(b, a))
}
