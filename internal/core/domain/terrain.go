package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Elevation thresholds in meters.
const (
	HillThreshold     = 100.0
	MountainThreshold = 400.0
)

// TerrainCategory is a coarse terrain class derived from elevation.
type TerrainCategory int

const (
	Plain TerrainCategory = iota + 1
	Hill
	Mountain
)

func (t TerrainCategory) String() string {
	switch t {
	case Plain:
		return "plain"
	case Hill:
		return "hill"
	case Mountain:
		return "mountain"
	default:
		return "unknown"
	}
}

// Label returns the category name in the given language ("es" or "en").
func (t TerrainCategory) Label(lang string) string {
	if strings.EqualFold(lang, "es") {
		switch t {
		case Plain:
			return "Planicie"
		case Hill:
			return "Cerro"
		case Mountain:
			return "Montaña"
		}
	}
	return t.String()
}

func (t TerrainCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// ParseTerrainCategory is the inverse of String.
func ParseTerrainCategory(s string) (TerrainCategory, error) {
	switch strings.ToLower(s) {
	case "plain":
		return Plain, nil
	case "hill":
		return Hill, nil
	case "mountain":
		return Mountain, nil
	}
	return 0, fmt.Errorf("unknown terrain category %q", s)
}

// Classifier maps elevations to categories. Hill and Mountain are the lower
// bound of the hill class and the exclusive lower bound of the mountain class.
type Classifier struct {
	Hill     float64
	Mountain float64
}

// DefaultClassifier uses HillThreshold and MountainThreshold.
var DefaultClassifier = Classifier{Hill: HillThreshold, Mountain: MountainThreshold}

// Classify returns the category for elevation, or false when it is undefined.
func (c Classifier) Classify(elevation *float64) (TerrainCategory, bool) {
	if elevation == nil {
		return 0, false
	}
	e := *elevation
	switch {
	case e > c.Mountain:
		return Mountain, true
	case e >= c.Hill:
		return Hill, true
	default:
		return Plain, true
	}
}

// Classify uses DefaultClassifier.
func Classify(elevation *float64) (TerrainCategory, bool) {
	return DefaultClassifier.Classify(elevation)
}
