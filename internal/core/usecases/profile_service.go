package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/relief/internal/core/domain"
	"github.com/samirrijal/relief/internal/core/ports"
	"github.com/samirrijal/relief/internal/pkg/geospatial"
	"github.com/samirrijal/relief/internal/pkg/metrics"
	"github.com/samirrijal/relief/internal/pkg/telemetry"
)

// DefaultProfilePoints is the number of samples along a profile.
const DefaultProfilePoints = 50

// MaxProfilePoints caps the size of a single batch request.
const MaxProfilePoints = 1000

// ProfileService builds elevation cross-sections with one batched lookup.
type ProfileService struct {
	provider  ports.ElevationProvider
	regions   ports.RegionSource
	publisher ports.ResultPublisher
}

// NewProfileService creates a new ProfileService. regions and publisher may be nil.
func NewProfileService(provider ports.ElevationProvider, regions ports.RegionSource, publisher ports.ResultPublisher) *ProfileService {
	return &ProfileService{provider: provider, regions: regions, publisher: publisher}
}

// ProfileRegion samples n points across the region's bounding box at its
// middle latitude.
func (s *ProfileService) ProfileRegion(ctx context.Context, name string, n int) (*domain.Profile, error) {
	region, err := lookupRegion(ctx, s.regions, name)
	if err != nil {
		return nil, err
	}
	b := region.Bounds()
	return s.Profile(ctx, region.Name(), b.Center().Lat, b.MinLon, b.MaxLon, n)
}

// Profile samples n evenly spaced longitudes between lonMin and lonMax at lat.
// A failed batch aborts the profile; no placeholder elevations are produced.
func (s *ProfileService) Profile(ctx context.Context, label string, lat, lonMin, lonMax float64, n int) (*domain.Profile, error) {
	if n == 0 {
		n = DefaultProfilePoints
	}
	if n < 2 || n > MaxProfilePoints {
		return nil, fmt.Errorf("%w: profile needs 2-%d points, got %d", domain.ErrInvalidConfiguration, MaxProfilePoints, n)
	}
	b := domain.Bounds{MinLat: lat, MaxLat: lat, MinLon: lonMin, MaxLon: lonMax}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if label == "" {
		label = fmt.Sprintf("lat %.4f", lat)
	}

	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "profile.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("region", label),
		attribute.Float64("latitude", lat),
		attribute.Int("points", n),
	)

	coords := ProfileCoordinates(lat, lonMin, lonMax, n)

	start := time.Now()
	elevations, err := s.provider.LookupBatch(ctx, coords)
	metrics.ElevationLookupDuration.WithLabelValues("batch").Observe(time.Since(start).Seconds())
	if err == nil && len(elevations) != len(coords) {
		err = &domain.BatchLookupError{
			Size: len(coords),
			Err:  fmt.Errorf("got %d results", len(elevations)),
		}
	}
	if err != nil && !errors.Is(err, domain.ErrBatchLookupFailure) && ctx.Err() == nil {
		err = &domain.BatchLookupError{Size: len(coords), Err: err}
	}
	metrics.ElevationLookups.WithLabelValues("batch", metrics.Outcome(err)).Inc()
	metrics.AnalysesTotal.WithLabelValues("profile", metrics.Outcome(err)).Inc()
	metrics.AnalysisDuration.WithLabelValues("profile").Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	profile := &domain.Profile{
		Region:   label,
		Latitude: lat,
		Points:   make([]domain.ProfilePoint, len(coords)),
	}
	for i, c := range coords {
		if math.IsNaN(elevations[i]) || math.IsInf(elevations[i], 0) {
			err := &domain.BatchLookupError{Size: len(coords), Err: fmt.Errorf("non-finite elevation at %s", c)}
			span.RecordError(err)
			return nil, err
		}
		profile.Points[i] = domain.ProfilePoint{Coordinate: c, Elevation: elevations[i]}
	}

	lo, hi := profile.MinMax()
	slog.InfoContext(ctx, "profile sampled",
		"region", label,
		"points", n,
		"span_km", geospatial.DistanceKm(lat, lonMin, lat, lonMax),
		"min_m", lo,
		"max_m", hi,
	)

	if s.publisher != nil {
		if err := s.publisher.PublishProfile(ctx, profile); err != nil {
			slog.WarnContext(ctx, "publish profile failed", "region", label, "error", err)
		}
	}

	return profile, nil
}

// ProfileCoordinates returns n evenly spaced points from lonMin to lonMax,
// both ends included.
func ProfileCoordinates(lat, lonMin, lonMax float64, n int) []domain.Coordinate {
	coords := make([]domain.Coordinate, n)
	for i := range coords {
		coords[i] = domain.Coordinate{
			Lat: lat,
			Lon: lonMin + float64(i)*(lonMax-lonMin)/float64(n-1),
		}
	}
	return coords
}
