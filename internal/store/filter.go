package store

import (
	"strings"
	"time"

	"github.com/couchcryptid/emdat-etl/internal/domain"
)

// Filter narrows the current batch for the map and list views. Zero values
// disable the corresponding condition.
type Filter struct {
	Types         []domain.DisasterType
	SubTypes      []string
	StartDate     time.Time
	EndDate       time.Time
	Countries     []string
	MinDeaths     int
	MinAffected   int
	SeverityLevel domain.SeverityLevel
	Limit         int
	Offset        int
}

// Match reports whether e satisfies every condition of f. Paging is ignored.
// Start and end bounds both apply to the event's start date.
func (f Filter) Match(e *domain.DisasterEvent) bool {
	if len(f.Types) > 0 && !containsType(f.Types, e.Type) {
		return false
	}
	if len(f.SubTypes) > 0 && !containsFold(f.SubTypes, e.SubType) {
		return false
	}
	if !f.StartDate.IsZero() && e.StartDate.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && e.StartDate.After(f.EndDate) {
		return false
	}
	if len(f.Countries) > 0 && !containsFold(f.Countries, e.Location.Country) {
		return false
	}
	if f.MinDeaths > 0 && e.Impact.Deaths < f.MinDeaths {
		return false
	}
	if f.MinAffected > 0 {
		if e.Impact.Affected == nil || *e.Impact.Affected < f.MinAffected {
			return false
		}
	}
	if f.SeverityLevel > 0 && e.Impact.SeverityLevel != f.SeverityLevel {
		return false
	}
	return true
}

// Apply returns the matching events in batch order, paged by Offset and
// Limit, along with the total number of matches before paging.
func (f Filter) Apply(events []domain.DisasterEvent) ([]domain.DisasterEvent, int) {
	matched := make([]domain.DisasterEvent, 0, len(events))
	for i := range events {
		if f.Match(&events[i]) {
			matched = append(matched, events[i])
		}
	}
	total := len(matched)

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []domain.DisasterEvent{}, total
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, total
}

func containsType(types []domain.DisasterType, t domain.DisasterType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
