package service

import (
	eventEntity "duet-api/modules/event/entity"
)

// interestEventTypes is the fixed dictionary from profile interest strings
// to event types. Interests outside the dictionary contribute nothing.
var interestEventTypes = map[string]eventEntity.EventType{
	"Hiking":       eventEntity.EventTypeHiking,
	"Trail Runs":   eventEntity.EventTypeHiking,
	"Dog Walking":  eventEntity.EventTypeDogWalking,
	"Dogs":         eventEntity.EventTypeDogWalking,
	"Tennis":       eventEntity.EventTypeTennis,
	"Coffee Date":  eventEntity.EventTypeCoffee,
	"Coffee":       eventEntity.EventTypeCoffee,
	"Bars":         eventEntity.EventTypeBar,
	"Craft Beer":   eventEntity.EventTypeBar,
	"Restaurant":   eventEntity.EventTypeRestaurant,
	"Foodie":       eventEntity.EventTypeRestaurant,
	"Fine Dining":  eventEntity.EventTypeRestaurant,
}

// EventTypesForInterests maps a user's interests to event types, de-duplicated
// and in derivation order (the order the interests appear).
func EventTypesForInterests(interests []string) []eventEntity.EventType {
	seen := make(map[eventEntity.EventType]bool, len(interestEventTypes))
	out := make([]eventEntity.EventType, 0, len(interests))
	for _, interest := range interests {
		eventType, ok := interestEventTypes[interest]
		if !ok || seen[eventType] {
			continue
		}
		seen[eventType] = true
		out = append(out, eventType)
	}
	return out
}

// SharedEventTypes returns the event types derivable from a's interests that
// b's interests also derive, preserving a's derivation order.
func SharedEventTypes(aInterests, bInterests []string) []eventEntity.EventType {
	bTypes := make(map[eventEntity.EventType]bool)
	for _, t := range EventTypesForInterests(bInterests) {
		bTypes[t] = true
	}

	aTypes := EventTypesForInterests(aInterests)
	out := make([]eventEntity.EventType, 0, len(aTypes))
	for _, t := range aTypes {
		if bTypes[t] {
			out = append(out, t)
		}
	}
	return out
}
