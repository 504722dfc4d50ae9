package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Resolution pairs a grid step with the area each sampled point stands for.
type Resolution struct {
	Name     string  `json:"name"`
	Step     float64 `json:"step"`
	CellArea float64 `json:"cell_area_km2"`
}

// Grid resolution presets.
var (
	Fine   = Resolution{Name: "fine", Step: 0.01, CellArea: 1}
	Medium = Resolution{Name: "medium", Step: 0.03, CellArea: 10}
	Coarse = Resolution{Name: "coarse", Step: 0.1, CellArea: 100}
)

// Resolutions lists the presets from finest to coarsest.
var Resolutions = []Resolution{Fine, Medium, Coarse}

// ResolutionByName looks a preset up by name or by its km² label ("1", "10", "100").
func ResolutionByName(name string) (Resolution, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimSuffix(n, "km2")
	for _, r := range Resolutions {
		if n == r.Name || n == fmt.Sprintf("%g", r.CellArea) {
			return r, nil
		}
	}
	return Resolution{}, fmt.Errorf("%w: unknown resolution %q", ErrInvalidConfiguration, name)
}

// AnalysisRequest is everything one area analysis needs.
type AnalysisRequest struct {
	Region   Region
	Step     float64
	CellArea float64
}

// NewAnalysisRequest builds a request from a region and a preset.
func NewAnalysisRequest(r Region, res Resolution) AnalysisRequest {
	return AnalysisRequest{Region: r, Step: res.Step, CellArea: res.CellArea}
}

// Validate rejects requests that cannot produce a grid.
func (r AnalysisRequest) Validate() error {
	if r.Region == nil {
		return fmt.Errorf("%w: region is required", ErrInvalidConfiguration)
	}
	if math.IsNaN(r.Step) || r.Step <= 0 {
		return fmt.Errorf("%w: step must be positive, got %v", ErrInvalidConfiguration, r.Step)
	}
	if math.IsNaN(r.CellArea) || r.CellArea <= 0 {
		return fmt.Errorf("%w: cell area must be positive, got %v", ErrInvalidConfiguration, r.CellArea)
	}
	return r.Region.Bounds().Validate()
}

// AnalysisResult is returned by one analysis run.
type AnalysisResult struct {
	Region    string            `json:"region"`
	Step      float64           `json:"step"`
	CellArea  float64           `json:"cell_area_km2"`
	Samples   []ElevationSample `json:"samples,omitempty"`
	Tally     AreaTally         `json:"tally"`
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration_ns"`
}

// Points returns the successfully sampled points in grid order.
func (r AnalysisResult) Points() []ProfilePoint {
	points := make([]ProfilePoint, 0, len(r.Samples))
	for _, s := range r.Samples {
		if s.OK() {
			points = append(points, ProfilePoint{Coordinate: s.Coordinate, Elevation: *s.Elevation})
		}
	}
	return points
}

// ProfilePoint is one sample along an elevation profile.
type ProfilePoint struct {
	Coordinate
	Elevation float64 `json:"elevation"`
}

// Profile is an elevation cross-section at a fixed latitude.
type Profile struct {
	Region   string         `json:"region"`
	Latitude float64        `json:"latitude"`
	Points   []ProfilePoint `json:"points"`
}

// MinMax returns the lowest and highest elevation of the profile.
func (p Profile) MinMax() (lo, hi float64) {
	if len(p.Points) == 0 {
		return 0, 0
	}
	lo, hi = p.Points[0].Elevation, p.Points[0].Elevation
	for _, pt := range p.Points[1:] {
		lo = math.Min(lo, pt.Elevation)
		hi = math.Max(hi, pt.Elevation)
	}
	return lo, hi
}
