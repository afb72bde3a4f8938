package store

import (
	"testing"

	"github.com/couchcryptid/emdat-etl/internal/domain"
	"github.com/stretchr/testify/assert"
)

func ids(events []domain.DisasterEvent) []string {
	out := make([]string, len(events))
	for i := range events {
		out[i] = events[i].ID
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "zero filter matches all", filter: Filter{}, want: []string{"emdat-1", "emdat-2", "emdat-3", "emdat-4"}},
		{name: "types", filter: Filter{Types: []domain.DisasterType{domain.TypeFlood}}, want: []string{"emdat-1", "emdat-3"}},
		{name: "countries case-insensitive", filter: Filter{Countries: []string{"turkey", "KENYA"}}, want: []string{"emdat-2", "emdat-4"}},
		{name: "start bound inclusive", filter: Filter{StartDate: day(2021, 2, 6)}, want: []string{"emdat-2", "emdat-3", "emdat-4"}},
		{name: "end bound inclusive", filter: Filter{EndDate: day(2021, 2, 6)}, want: []string{"emdat-1", "emdat-2"}},
		{name: "date window", filter: Filter{StartDate: day(2021, 1, 1), EndDate: day(2021, 12, 31)}, want: []string{"emdat-2", "emdat-3"}},
		{name: "min deaths", filter: Filter{MinDeaths: 100}, want: []string{"emdat-1", "emdat-2"}},
		{name: "min affected skips unreported", filter: Filter{MinAffected: 1}, want: []string{"emdat-1", "emdat-2", "emdat-4"}},
		{name: "severity exact", filter: Filter{SeverityLevel: 5}, want: []string{"emdat-2"}},
		{name: "combined", filter: Filter{Types: []domain.DisasterType{domain.TypeFlood}, MinDeaths: 50}, want: []string{"emdat-1"}},
		{name: "no match", filter: Filter{Types: []domain.DisasterType{domain.TypeVolcano}}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total := tt.filter.Apply(testEvents())
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, len(tt.want), total)
		})
	}
}

func TestFilter_Paging(t *testing.T) {
	got, total := Filter{Limit: 2, Offset: 1}.Apply(testEvents())
	assert.Equal(t, []string{"emdat-2", "emdat-3"}, ids(got))
	assert.Equal(t, 4, total)

	got, total = Filter{Offset: 10}.Apply(testEvents())
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Equal(t, 4, total)
}

func TestFilter_SubTypes(t *testing.T) {
	events := testEvents()
	events[0].SubType = "Flash flood"
	events[2].SubType = "Riverine flood"

	got, _ := Filter{SubTypes: []string{"flash flood"}}.Apply(events)
	assert.Equal(t, []string{"emdat-1"}, ids(got))
}
