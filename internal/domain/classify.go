package domain

import "strings"

// typeKeywords is scanned in order and the first keyword found in either the
// type or subtype wins, so "storm surge" lands on flood before the generic
// "storm" rule can claim it for hurricane.
var typeKeywords = []struct {
	category DisasterType
	keywords []string
}{
	{TypeEarthquake, []string{"earthquake", "seismic", "quake"}},
	{TypeFlood, []string{"flood", "storm surge", "inundation"}},
	{TypeHurricane, []string{"hurricane", "typhoon", "cyclone", "tornado", "storm"}},
	{TypeTsunami, []string{"tsunami", "tidal wave"}},
	{TypeVolcano, []string{"volcan", "eruption", "lava"}},
	{TypeDrought, []string{"drought", "dry spell"}},
	{TypeWildfire, []string{"fire"}},
}

// naturalHazardKeywords is the inclusion list for the natural-only filter.
// Landslides or heat waves pass it but still classify as TypeOther. Fire is
// listed only in its vegetation forms; a plain "Fire" subtype also appears
// under the accident families.
var naturalHazardKeywords = []string{
	"earthquake", "seismic", "quake", "tsunami", "tidal wave",
	"volcan", "eruption", "lava", "ash fall",
	"flood", "flash flood", "storm surge", "inundation",
	"storm", "hurricane", "typhoon", "cyclone", "tornado", "blizzard",
	"hail", "lightning", "thunder", "winter", "derecho",
	"drought", "dry spell", "wildfire", "forest fire", "land fire", "bush",
	"landslide", "mudslide", "avalanche", "rockfall", "mass movement", "subsidence",
	"extreme temperature", "heat wave", "cold wave", "severe winter",
	"epidemic", "infestation", "insect", "glacial", "extra-terrestrial", "meteor",
}

// technologicalKeywords mark EMDAT's technological families. A type naming
// one is never a natural hazard, whatever its subtype says.
var technologicalKeywords = []string{"accident", "technological"}

// ClassifyType maps EMDAT type and subtype strings onto the closed category
// set. It never fails: unrecognized input is TypeOther.
func ClassifyType(disasterType, subType string) DisasterType {
	t := strings.ToLower(strings.TrimSpace(disasterType))
	s := strings.ToLower(strings.TrimSpace(subType))

	for _, entry := range typeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(t, kw) || strings.Contains(s, kw) {
				return entry.category
			}
		}
	}
	return TypeOther
}

// IsNaturalHazard reports whether the type or subtype names a recognized
// natural hazard.
func IsNaturalHazard(disasterType, subType string) bool {
	t := strings.ToLower(strings.TrimSpace(disasterType))
	s := strings.ToLower(strings.TrimSpace(subType))
	if t == "" && s == "" {
		return false
	}
	for _, kw := range technologicalKeywords {
		if strings.Contains(t, kw) {
			return false
		}
	}
	for _, kw := range naturalHazardKeywords {
		if strings.Contains(t, kw) || strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
