package domain_test

import (
	"errors"
	"testing"

	"github.com/samirrijal/relief/internal/core/domain"
)

func TestAnalysisResult_Points(t *testing.T) {
	r := domain.AnalysisResult{Samples: []domain.ElevationSample{
		domain.Sampled(domain.Coordinate{Lat: -43, Lon: -73.7}, 12),
		domain.Failed(domain.Coordinate{Lat: -43, Lon: -73.6}, errors.New("timeout")),
		domain.Sampled(domain.Coordinate{Lat: -43, Lon: -73.5}, 450),
	}}

	points := r.Points()
	if len(points) != 2 {
		t.Fatalf("len = %d, want 2", len(points))
	}
	if points[0].Lon != -73.7 || points[1].Lon != -73.5 || points[1].Elevation != 450 {
		t.Errorf("points = %+v", points)
	}
}

func TestAnalysisRequest_Validate(t *testing.T) {
	rect, err := domain.NewRectangle(-43.1, -43.0, -73.7, -73.6)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		req  domain.AnalysisRequest
		ok   bool
	}{
		{"preset", domain.NewAnalysisRequest(rect, domain.Coarse), true},
		{"no region", domain.AnalysisRequest{Step: 0.1, CellArea: 100}, false},
		{"zero step", domain.AnalysisRequest{Region: rect, CellArea: 100}, false},
		{"negative step", domain.AnalysisRequest{Region: rect, Step: -0.1, CellArea: 100}, false},
		{"zero cell area", domain.AnalysisRequest{Region: rect, Step: 0.1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate: %v", err)
			}
			if !tt.ok && !errors.Is(err, domain.ErrInvalidConfiguration) {
				t.Errorf("Validate = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}
