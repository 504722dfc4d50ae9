package usecases

import (
	"context"
	"log/slog"
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

// AnalysisService runs the grid → membership → sampling → classification →
// tally pipeline for one region.
type AnalysisService struct {
	sampler    *Sampler
	regions    ports.RegionSource
	publisher  ports.ResultPublisher
	classifier domain.Classifier
}

// NewAnalysisService creates a new AnalysisService. regions and publisher may be nil.
func NewAnalysisService(sampler *Sampler, regions ports.RegionSource, publisher ports.ResultPublisher) *AnalysisService {
	return &AnalysisService{
		sampler:    sampler,
		regions:    regions,
		publisher:  publisher,
		classifier: domain.DefaultClassifier,
	}
}

// WithClassifier returns a copy of the service using c.
func (s *AnalysisService) WithClassifier(c domain.Classifier) *AnalysisService {
	cp := *s
	cp.classifier = c
	return &cp
}

// Analyze samples the region and tallies classified area. On cancellation
// the partial result is returned together with the context error.
func (s *AnalysisService) Analyze(ctx context.Context, req domain.AnalysisRequest, progress ProgressFunc) (*domain.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		metrics.AnalysesTotal.WithLabelValues("area", "invalid").Inc()
		return nil, err
	}

	grid, err := NewGrid(req.Region.Bounds(), req.Step)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "analysis.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("region", req.Region.Name()),
		attribute.Float64("step", req.Step),
		attribute.Float64("cell_area_km2", req.CellArea),
		attribute.Int("grid_points", grid.Len()),
	)

	result := &domain.AnalysisResult{
		Region:    req.Region.Name(),
		Step:      req.Step,
		CellArea:  req.CellArea,
		StartedAt: time.Now(),
	}

	coords := Members(req.Region, grid)
	center := req.Region.Bounds().Center()
	slog.InfoContext(ctx, "analysis started",
		"region", result.Region,
		"grid_points", grid.Len(),
		"members", len(coords),
		"step", req.Step,
		"cell_area_km2", req.CellArea,
		"approx_cell_km2", geospatial.CellAreaKm2(center.Lat, req.Step),
	)

	samples, err := s.sampler.Sample(ctx, coords, progress)
	for _, sample := range samples {
		result.Tally.AccumulateWith(s.classifier, sample, req.CellArea)
		if cat, ok := s.classifier.Classify(sample.Elevation); ok {
			metrics.PointsClassified.WithLabelValues(cat.String()).Inc()
		}
	}
	result.Samples = samples
	result.Duration = time.Since(result.StartedAt)

	metrics.AnalysesTotal.WithLabelValues("area", metrics.Outcome(err)).Inc()
	metrics.AnalysisDuration.WithLabelValues("area").Observe(result.Duration.Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "analysis interrupted", "region", result.Region, "sampled", len(samples), "error", err)
		return result, err
	}

	slog.InfoContext(ctx, "analysis finished",
		"region", result.Region,
		"total_km2", result.Tally.Total,
		"failed", result.Tally.Failed,
		"duration", result.Duration.String(),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishAnalysis(ctx, result); err != nil {
			slog.WarnContext(ctx, "publish analysis failed", "region", result.Region, "error", err)
		}
	}

	return result, nil
}

// AnalyzeRegion resolves a named region and analyzes it at a preset resolution.
func (s *AnalysisService) AnalyzeRegion(ctx context.Context, name string, res domain.Resolution, progress ProgressFunc) (*domain.AnalysisResult, error) {
	region, err := lookupRegion(ctx, s.regions, name)
	if err != nil {
		return nil, err
	}
	return s.Analyze(ctx, domain.NewAnalysisRequest(region, res), progress)
}
