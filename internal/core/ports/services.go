package ports

import (
	"context"

	"github.com/samirrijal/relief/internal/core/domain"
)

// ElevationProvider looks elevations up from an external source.
type ElevationProvider interface {
	// Lookup returns the elevation of one coordinate. Errors are per point.
	Lookup(ctx context.Context, c domain.Coordinate) (float64, error)
	// LookupBatch returns one elevation per coordinate, in order. A failed
	// batch yields no partial results.
	LookupBatch(ctx context.Context, coords []domain.Coordinate) ([]float64, error)
}

// RegionSource provides named region boundaries.
type RegionSource interface {
	// Names lists region names in a group ("" for all), sorted and unique.
	Names(ctx context.Context, group string) ([]string, error)
	// Region returns the boundary for name or domain.ErrRegionNotFound.
	Region(ctx context.Context, name string) (*domain.Polygon, error)
}

// Reporter renders results for the operator.
type Reporter interface {
	Table(points []domain.ProfilePoint) error
	Summary(tally domain.AreaTally) error
	ProfilePlot(p domain.Profile) error
	ShapePlot(r domain.Region) error
}

// ResultPublisher announces finished analyses and profiles to a message broker.
type ResultPublisher interface {
	PublishAnalysis(ctx context.Context, result *domain.AnalysisResult) error
	PublishProfile(ctx context.Context, profile *domain.Profile) error
}
