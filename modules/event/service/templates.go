package service

import (
	"fmt"
	"sort"

	"github.com/gosimple/slug"

	"duet-api/core/config"
	"duet-api/core/constants"
	"duet-api/modules/event/entity"
	matchingEntity "duet-api/modules/matching/entity"
)

// Venue is one configured venue for an event type.
type Venue struct {
	Name     string
	Address  string
	Location string
	Photos   []string
}

// EventTemplate is the static blueprint an event of one type is stamped
// from.
type EventTemplate struct {
	EventType   entity.EventType
	Title       string
	Description string
	Category    string
	Location    string
	Photos      []string
	GroupSize   int
	Venue       *Venue
	Venues      []Venue
}

// TemplateProvider hands out static event templates and venue lists. It is
// injected so orchestration can be exercised against fixture configuration.
type TemplateProvider interface {
	TemplatesByType(eventType entity.EventType) []EventTemplate
	VenuesForType(eventType entity.EventType) []Venue
}

// fallbackTemplates covers event types with no configured template so a
// queue never stalls on missing configuration.
var fallbackTemplates = map[entity.EventType]EventTemplate{
	entity.EventTypeCoffee:     {EventType: entity.EventTypeCoffee, Title: "Coffee Meetup", Description: "Meet over coffee", Category: "social", GroupSize: 4, Venue: &Venue{Name: "Local Coffee House"}},
	entity.EventTypeBar:        {EventType: entity.EventTypeBar, Title: "Bar Night", Description: "Drinks after work", Category: "social", GroupSize: 4, Venue: &Venue{Name: "Neighborhood Bar"}},
	entity.EventTypeRestaurant: {EventType: entity.EventTypeRestaurant, Title: "Dinner Out", Description: "Shared dinner table", Category: "social", GroupSize: 4, Venue: &Venue{Name: "Downtown Restaurant"}},
	entity.EventTypeTennis:     {EventType: entity.EventTypeTennis, Title: "Tennis Doubles", Description: "Doubles on a public court", Category: "sports", GroupSize: 4, Venue: &Venue{Name: "Public Tennis Courts"}},
	entity.EventTypeDogWalking: {EventType: entity.EventTypeDogWalking, Title: "Dog Walk", Description: "Group walk with the dogs", Category: "outdoors", GroupSize: 4, Venue: &Venue{Name: "City Dog Park"}},
	entity.EventTypeHiking:     {EventType: entity.EventTypeHiking, Title: "Group Hike", Description: "Easy group trail hike", Category: "outdoors", GroupSize: 4, Venue: &Venue{Name: "Regional Park Trailhead"}},
}

type configTemplateProvider struct {
	templates map[entity.EventType][]EventTemplate
	venues    map[entity.EventType][]Venue
}

// NewConfigTemplateProvider builds a provider from loaded configuration,
// falling back to the built-in template per type when none is configured.
func NewConfigTemplateProvider(cfg config.EventsConfig) TemplateProvider {
	p := &configTemplateProvider{
		templates: make(map[entity.EventType][]EventTemplate),
		venues:    make(map[entity.EventType][]Venue),
	}

	for _, t := range cfg.Templates {
		eventType := entity.EventType(t.EventType)
		if !eventType.Valid() {
			continue
		}

		tmpl := EventTemplate{
			EventType:   eventType,
			Title:       t.Title,
			Description: t.Description,
			Category:    t.Category,
			Location:    t.Location,
			Photos:      t.Photos,
			GroupSize:   t.GroupSize,
		}
		if t.Venue != nil {
			tmpl.Venue = &Venue{Name: t.Venue.Name, Address: t.Venue.Address, Location: t.Venue.Location, Photos: t.Venue.Photos}
		}
		for _, v := range t.Venues {
			venue := Venue{Name: v.Name, Address: v.Address, Location: v.Location, Photos: v.Photos}
			tmpl.Venues = append(tmpl.Venues, venue)
			p.venues[eventType] = append(p.venues[eventType], venue)
		}

		p.templates[eventType] = append(p.templates[eventType], tmpl)
	}

	return p
}

func (p *configTemplateProvider) TemplatesByType(eventType entity.EventType) []EventTemplate {
	if templates, ok := p.templates[eventType]; ok && len(templates) > 0 {
		return templates
	}
	if fallback, ok := fallbackTemplates[eventType]; ok {
		return []EventTemplate{fallback}
	}
	return nil
}

func (p *configTemplateProvider) VenuesForType(eventType entity.EventType) []Venue {
	return p.venues[eventType]
}

// FirstTemplate returns the template an event of this type is stamped from.
func FirstTemplate(provider TemplateProvider, eventType entity.EventType) (EventTemplate, bool) {
	templates := provider.TemplatesByType(eventType)
	if len(templates) == 0 {
		return EventTemplate{}, false
	}
	return templates[0], true
}

// PairsRequired derives the target pair count from the template group size.
func PairsRequired(tmpl EventTemplate) int {
	required := tmpl.GroupSize / 2
	if required < 1 {
		required = 1
	}
	return required
}

// VenueOptionID derives the stable id for one venue option.
func VenueOptionID(eventType entity.EventType, index int, name string) string {
	return fmt.Sprintf("%s-%d-%s", eventType, index, slug.Make(name))
}

// BuildVenueOptions assembles up to three venue options for an event,
// falling back to the template's single venue when no venue list exists.
func BuildVenueOptions(provider TemplateProvider, eventType entity.EventType, tmpl EventTemplate) entity.VenueOptions {
	venues := provider.VenuesForType(eventType)
	if len(venues) == 0 && tmpl.Venue != nil {
		venues = []Venue{*tmpl.Venue}
	}
	if len(venues) > constants.MaxVenueOptions {
		venues = venues[:constants.MaxVenueOptions]
	}

	options := make(entity.VenueOptions, 0, len(venues))
	for i, v := range venues {
		options = append(options, entity.VenueOption{
			ID:       VenueOptionID(eventType, i, v.Name),
			Name:     v.Name,
			Address:  v.Address,
			Location: v.Location,
			Photos:   v.Photos,
		})
	}
	return options
}

// BuildSuggestedTimes unions the contributing pairs' overlap days, with
// segments de-duplicated and sorted into canonical day order, truncated to
// the earliest dates.
func BuildSuggestedTimes(pairs []matchingEntity.PairMatch) entity.SuggestedTimes {
	segmentRank := map[string]int{"morning": 0, "afternoon": 1, "evening": 2, "night": 3}

	byDate := make(map[string]map[string]bool)
	for _, pair := range pairs {
		for _, day := range pair.AvailabilityOverlapSegments {
			if byDate[day.Date] == nil {
				byDate[day.Date] = make(map[string]bool)
			}
			for _, seg := range day.Segments {
				byDate[day.Date][seg] = true
			}
		}
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	if len(dates) > constants.MaxSuggestedTimeDates {
		dates = dates[:constants.MaxSuggestedTimeDates]
	}

	times := make(entity.SuggestedTimes, 0, len(dates))
	for _, date := range dates {
		segments := make([]string, 0, len(byDate[date]))
		for seg := range byDate[date] {
			segments = append(segments, seg)
		}
		sort.Slice(segments, func(i, j int) bool {
			return segmentRank[segments[i]] < segmentRank[segments[j]]
		})
		times = append(times, entity.SuggestedTime{Date: date, Segments: segments})
	}
	return times
}
