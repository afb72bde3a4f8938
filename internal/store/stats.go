package store

import (
	"sort"

	"github.com/couchcryptid/emdat-etl/internal/domain"
)

// UnknownRegion groups events whose record named no region.
const UnknownRegion = "Unknown"

// Stats are the dashboard aggregates over a set of events.
type Stats struct {
	TotalEvents          int                         `json:"totalEvents"`
	TotalDeaths          int                         `json:"totalDeaths"`
	TotalAffected        int                         `json:"totalAffected"`
	TotalEconomicLossUSD float64                     `json:"totalEconomicLossUSD"`
	ByType               map[domain.DisasterType]int `json:"byType"`
	ByYear               []YearCount                 `json:"byYear"`
	FatalitiesByYear     []YearFatalities            `json:"fatalitiesByYear"`
	ByRegion             []RegionImpact              `json:"byRegion"`
}

type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// YearFatalities sums deaths per category for one year.
type YearFatalities struct {
	Year   int                         `json:"year"`
	ByType map[domain.DisasterType]int `json:"byType"`
}

type RegionImpact struct {
	Region          string  `json:"region"`
	Events          int     `json:"events"`
	Affected        int     `json:"affected"`
	EconomicLossUSD float64 `json:"economicLossUSD"`
}

// ComputeStats aggregates events. Years and regions come back sorted
// ascending so the output is deterministic.
func ComputeStats(events []domain.DisasterEvent) Stats {
	s := Stats{
		ByType:           make(map[domain.DisasterType]int),
		ByYear:           []YearCount{},
		FatalitiesByYear: []YearFatalities{},
		ByRegion:         []RegionImpact{},
	}
	years := make(map[int]*YearCount)
	fatalities := make(map[int]map[domain.DisasterType]int)
	regions := make(map[string]*RegionImpact)

	for i := range events {
		e := &events[i]
		affected := 0
		if e.Impact.Affected != nil {
			affected = *e.Impact.Affected
		}
		var loss float64
		if e.Impact.EconomicLossUSD != nil {
			loss = *e.Impact.EconomicLossUSD
		}

		s.TotalEvents++
		s.TotalDeaths += e.Impact.Deaths
		s.TotalAffected += affected
		s.TotalEconomicLossUSD += loss
		s.ByType[e.Type]++

		year := e.StartDate.Year()
		yc, ok := years[year]
		if !ok {
			yc = &YearCount{Year: year}
			years[year] = yc
			fatalities[year] = make(map[domain.DisasterType]int)
		}
		yc.Count++
		fatalities[year][e.Type] += e.Impact.Deaths

		region := e.Location.Region
		if region == "" {
			region = UnknownRegion
		}
		ri, ok := regions[region]
		if !ok {
			ri = &RegionImpact{Region: region}
			regions[region] = ri
		}
		ri.Events++
		ri.Affected += affected
		ri.EconomicLossUSD += loss
	}

	for _, yc := range years {
		s.ByYear = append(s.ByYear, *yc)
		s.FatalitiesByYear = append(s.FatalitiesByYear, YearFatalities{Year: yc.Year, ByType: fatalities[yc.Year]})
	}
	sort.Slice(s.ByYear, func(i, j int) bool { return s.ByYear[i].Year < s.ByYear[j].Year })
	sort.Slice(s.FatalitiesByYear, func(i, j int) bool { return s.FatalitiesByYear[i].Year < s.FatalitiesByYear[j].Year })

	for _, ri := range regions {
		s.ByRegion = append(s.ByRegion, *ri)
	}
	sort.Slice(s.ByRegion, func(i, j int) bool { return s.ByRegion[i].Region < s.ByRegion[j].Region })

	return s
}
