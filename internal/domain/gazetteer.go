package domain

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed gazetteer_default.yaml
var defaultGazetteer []byte

// Gazetteer maps place names to coordinates at city, region, and country
// granularity. It is read-only after construction and safe for concurrent use.
type Gazetteer struct {
	cities    map[string]Coordinates
	regions   map[string]Coordinates
	countries map[string]Coordinates
}

// gazetteerFile is the on-disk shape. JSON files parse too since the YAML
// decoder accepts JSON documents.
type gazetteerFile struct {
	Cities    map[string]Coordinates `yaml:"cities"`
	Regions   map[string]Coordinates `yaml:"regions"`
	Countries map[string]Coordinates `yaml:"countries"`
}

// NewGazetteer copies the given tables into a new Gazetteer. Nil maps are
// treated as empty.
func NewGazetteer(cities, regions, countries map[string]Coordinates) *Gazetteer {
	return &Gazetteer{
		cities:    copyTable(cities),
		regions:   copyTable(regions),
		countries: copyTable(countries),
	}
}

// ParseGazetteer decodes a YAML or JSON gazetteer document.
func ParseGazetteer(data []byte) (*Gazetteer, error) {
	var f gazetteerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse gazetteer: %w", err)
	}
	return NewGazetteer(f.Cities, f.Regions, f.Countries), nil
}

// LoadGazetteer reads the gazetteer at path. An empty path selects the table
// compiled into the binary.
func LoadGazetteer(path string) (*Gazetteer, error) {
	if path == "" {
		return DefaultGazetteer()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gazetteer %s: %w", path, err)
	}
	return ParseGazetteer(data)
}

// DefaultGazetteer returns the built-in table of country centroids plus a
// handful of frequently reported regions and cities.
func DefaultGazetteer() (*Gazetteer, error) {
	return ParseGazetteer(defaultGazetteer)
}

// City looks up a city by exact name.
func (g *Gazetteer) City(name string) (Coordinates, bool) {
	c, ok := g.cities[name]
	return c, ok
}

// Region looks up a region by exact name. See [NormalizeRegion].
func (g *Gazetteer) Region(name string) (Coordinates, bool) {
	c, ok := g.regions[name]
	return c, ok
}

// Country looks up a country by exact name.
func (g *Gazetteer) Country(name string) (Coordinates, bool) {
	c, ok := g.countries[name]
	return c, ok
}

// Len reports the number of entries per namespace.
func (g *Gazetteer) Len() (cities, regions, countries int) {
	return len(g.cities), len(g.regions), len(g.countries)
}

func copyTable(in map[string]Coordinates) map[string]Coordinates {
	out := make(map[string]Coordinates, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
