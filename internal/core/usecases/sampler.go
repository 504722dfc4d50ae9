package usecases

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/samirrijal/relief/internal/core/domain"
	"github.com/samirrijal/relief/internal/core/ports"
	"github.com/samirrijal/relief/internal/pkg/metrics"
	"github.com/samirrijal/relief/internal/pkg/telemetry"
)

var errNonFinite = errors.New("non-finite elevation")

// DefaultRequestInterval is the minimum pause between single-point lookups.
const DefaultRequestInterval = 100 * time.Millisecond

// ProgressFunc is called after each point is sampled. i is 1-based.
type ProgressFunc func(i, n int, s domain.ElevationSample)

// Sampler performs sequential single-point lookups, paced by a rate limiter.
type Sampler struct {
	provider ports.ElevationProvider
	limiter  *rate.Limiter
}

// NewSampler creates a Sampler. An interval <= 0 disables pacing.
func NewSampler(provider ports.ElevationProvider, interval time.Duration) *Sampler {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Sampler{provider: provider, limiter: rate.NewLimiter(limit, 1)}
}

// Sample looks up every coordinate in order. A failed lookup yields a failed
// sample and the loop continues. On cancellation the samples gathered so far
// are returned along with the context error.
func (s *Sampler) Sample(ctx context.Context, coords []domain.Coordinate, progress ProgressFunc) ([]domain.ElevationSample, error) {
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "sampler.sample")
	defer span.End()
	span.SetAttributes(attribute.Int("points", len(coords)))

	samples := make([]domain.ElevationSample, 0, len(coords))
	failed := 0

	for i, c := range coords {
		if err := s.limiter.Wait(ctx); err != nil {
			span.SetAttributes(attribute.Int("sampled", len(samples)))
			if ctx.Err() != nil {
				return samples, ctx.Err()
			}
			return samples, err
		}

		sample := s.lookup(ctx, c)
		if !sample.OK() {
			if ctx.Err() != nil {
				return samples, ctx.Err()
			}
			failed++
			slog.WarnContext(ctx, "elevation lookup failed",
				"lat", c.Lat, "lon", c.Lon, "error", sample.Err)
		}
		samples = append(samples, sample)

		if progress != nil {
			progress(i+1, len(coords), sample)
		}
	}

	span.SetAttributes(attribute.Int("failed", failed))
	return samples, nil
}

func (s *Sampler) lookup(ctx context.Context, c domain.Coordinate) domain.ElevationSample {
	start := time.Now()
	elevation, err := s.provider.Lookup(ctx, c)
	metrics.ElevationLookupDuration.WithLabelValues("single").Observe(time.Since(start).Seconds())

	if err == nil && (math.IsNaN(elevation) || math.IsInf(elevation, 0)) {
		err = &domain.LookupError{Coordinate: c, Err: errNonFinite}
	}
	metrics.ElevationLookups.WithLabelValues("single", metrics.Outcome(err)).Inc()

	if err != nil {
		return domain.Failed(c, err)
	}
	return domain.Sampled(c, elevation)
}
