package service

import (
	"sort"
	"time"

	"duet-api/core/constants"
	"duet-api/modules/matching/entity"
	userEntity "duet-api/modules/user/entity"
)

// The four fixed day segments, in canonical order.
const (
	SegmentMorning   = "morning"
	SegmentAfternoon = "afternoon"
	SegmentEvening   = "evening"
	SegmentNight     = "night"
)

var segmentOrder = []string{SegmentMorning, SegmentAfternoon, SegmentEvening, SegmentNight}

// dateLayouts are the accepted inputs for availability date keys. Output is
// always the canonical ISO form.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
}

const canonicalDateLayout = "2006-01-02"

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeAvailability re-keys a raw availability map by canonical ISO
// date, dropping unparseable keys and dates earlier than today (local
// midnight relative to now).
func NormalizeAvailability(raw userEntity.AvailabilityMap, now time.Time) userEntity.AvailabilityMap {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	out := make(userEntity.AvailabilityMap, len(raw))
	for key, day := range raw {
		parsed, ok := parseDate(key)
		if !ok {
			continue
		}
		date := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, now.Location())
		if date.Before(midnight) {
			continue
		}
		out[date.Format(canonicalDateLayout)] = day
	}
	return out
}

func daySegments(d userEntity.DayAvailability) map[string]bool {
	return map[string]bool{
		SegmentMorning:   d.Morning,
		SegmentAfternoon: d.Afternoon,
		SegmentEvening:   d.Evening,
		SegmentNight:     d.Night,
	}
}

// ComputeOverlap returns the days both users have free, with the segments
// both have marked, ordered by date. A day blocked on either side is
// skipped entirely. The computation is pure and symmetric in its arguments.
func ComputeOverlap(a, b userEntity.AvailabilityMap, now time.Time) entity.OverlapDays {
	na := NormalizeAvailability(a, now)
	nb := NormalizeAvailability(b, now)

	overlap := entity.OverlapDays{}
	for date, dayA := range na {
		dayB, ok := nb[date]
		if !ok {
			continue
		}
		if dayA.Blocked || dayB.Blocked {
			continue
		}

		segsA := daySegments(dayA)
		segsB := daySegments(dayB)

		shared := make([]string, 0, len(segmentOrder))
		for _, seg := range segmentOrder {
			if segsA[seg] && segsB[seg] {
				shared = append(shared, seg)
			}
		}
		if len(shared) > 0 {
			overlap = append(overlap, entity.OverlapDay{Date: date, Segments: shared})
		}
	}

	sort.Slice(overlap, func(i, j int) bool {
		return overlap[i].Date < overlap[j].Date
	})

	return overlap
}

// HasSufficientAvailability is the single queueing gate on overlap size.
func HasSufficientAvailability(totalSegments int) bool {
	return totalSegments >= constants.MinOverlapSegments
}
