package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyType(t *testing.T) {
	tests := []struct {
		name     string
		typ, sub string
		want     DisasterType
	}{
		{"earthquake by type", "Earthquake", "", TypeEarthquake},
		{"flood by subtype only", "", "Flash Flood", TypeFlood},
		{"unknown maps to other", "Meteorite", "", TypeOther},
		{"volcanic eruption", "Volcanic Eruption", "", TypeVolcano},
		{"volcanic activity with ash fall", "Volcanic activity", "Ash fall", TypeVolcano},
		{"ground movement subtype", "Mass movement (dry)", "Ground movement", TypeOther},
		{"tropical cyclone", "Storm", "Tropical cyclone", TypeHurricane},
		{"storm surge is a flood", "Storm", "Storm surge", TypeFlood},
		{"convective storm", "Storm", "Convective storm", TypeHurricane},
		{"tornado", "Storm", "Tornado", TypeHurricane},
		{"tsunami", "Tsunami", "", TypeTsunami},
		{"tidal wave", "", "Tidal wave", TypeTsunami},
		{"drought", "Drought", "Drought", TypeDrought},
		{"forest fire", "Wildfire", "Forest fire", TypeWildfire},
		{"earthquake wins over tsunami subtype", "Earthquake", "Tsunami", TypeEarthquake},
		{"seismic", "Seismic activity", "", TypeEarthquake},
		{"case and whitespace", "  FLOOD  ", "", TypeFlood},
		{"epidemic", "Epidemic", "Bacterial disease", TypeOther},
		{"both empty", "", "", TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyType(tt.typ, tt.sub))
		})
	}
}

func TestClassifyType_AlwaysInClosedSet(t *testing.T) {
	inputs := []string{"", "x", "Landslide", "Extreme temperature", "Industrial accident", "Volcano", "fire"}
	for _, typ := range inputs {
		for _, sub := range inputs {
			_, ok := ParseDisasterType(string(ClassifyType(typ, sub)))
			assert.True(t, ok, "ClassifyType(%q, %q)", typ, sub)
		}
	}
}

func TestIsNaturalHazard(t *testing.T) {
	tests := []struct {
		typ, sub string
		want     bool
	}{
		{"Earthquake", "Ground movement", true},
		{"Landslide", "Mudslide", true},
		{"Extreme temperature", "Heat wave", true},
		{"Epidemic", "Viral disease", true},
		{"Industrial accident", "Explosion", false},
		{"Transport accident", "Road", false},
		{"Miscellaneous accident", "Collapse", false},
		{"Miscellaneous accident", "Fire", false},
		{"Industrial accident", "Fire", false},
		{"Transport accident", "Water", false},
		{"Wildfire", "Forest fire", true},
		{"Wildfire", "Land fire (Brush, Bush, Pasture)", true},
		{"Flood", "Coastal flood", true},
		{"Extra-terrestrial", "Impact", true},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.sub, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNaturalHazard(tt.typ, tt.sub))
		})
	}
}

func TestParseDisasterType(t *testing.T) {
	got, ok := ParseDisasterType("volcano")
	assert.True(t, ok)
	assert.Equal(t, TypeVolcano, got)

	got, ok = ParseDisasterType("Volcano")
	assert.False(t, ok)
	assert.Equal(t, TypeOther, got)
}
