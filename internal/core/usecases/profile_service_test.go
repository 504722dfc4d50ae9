package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/relief/internal/core/domain"
	"github.com/samirrijal/relief/internal/core/usecases"
)

func TestProfile_Success(t *testing.T) {
	p := &mockProvider{lookupBatchFn: func(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
		out := make([]float64, len(coords))
		for i := range coords {
			out[i] = float64(i * 10)
		}
		return out, nil
	}}
	pub := &mockPublisher{}
	svc := usecases.NewProfileService(p, nil, pub)

	prof, err := svc.Profile(context.Background(), "Castro", -42.5, -73.8, -73.5, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prof.Points) != usecases.DefaultProfilePoints {
		t.Fatalf("expected %d points, got %d", usecases.DefaultProfilePoints, len(prof.Points))
	}
	if prof.Points[3].Elevation != 30 {
		t.Errorf("expected elevation 30 at index 3, got %v", prof.Points[3].Elevation)
	}
	if lo, hi := prof.MinMax(); lo != 0 || hi != 490 {
		t.Errorf("min/max = %v/%v", lo, hi)
	}
	if len(pub.profiles) != 1 {
		t.Errorf("expected one published profile, got %d", len(pub.profiles))
	}
}

func TestProfile_BatchFailureAborts(t *testing.T) {
	p := &mockProvider{lookupBatchFn: func(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
		return nil, &domain.BatchLookupError{Size: len(coords), Status: 500}
	}}
	pub := &mockPublisher{}
	svc := usecases.NewProfileService(p, nil, pub)

	prof, err := svc.Profile(context.Background(), "Castro", -42.5, -73.8, -73.5, 10)
	if !errors.Is(err, domain.ErrBatchLookupFailure) {
		t.Fatalf("expected ErrBatchLookupFailure, got %v", err)
	}
	if prof != nil {
		t.Error("expected no profile for a failed batch")
	}
	if len(pub.profiles) != 0 {
		t.Error("failed profile must not be published")
	}
}

func TestProfile_TransportErrorIsBatchFailure(t *testing.T) {
	p := &mockProvider{lookupBatchFn: func(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
		return nil, errors.New("connection refused")
	}}
	_, err := usecases.NewProfileService(p, nil, nil).Profile(context.Background(), "", -42.5, -73.8, -73.5, 10)
	if !errors.Is(err, domain.ErrBatchLookupFailure) {
		t.Fatalf("expected ErrBatchLookupFailure, got %v", err)
	}
}

func TestProfile_ShortBatch(t *testing.T) {
	p := &mockProvider{lookupBatchFn: func(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
		return []float64{1, 2}, nil
	}}
	_, err := usecases.NewProfileService(p, nil, nil).Profile(context.Background(), "", -42.5, -73.8, -73.5, 10)
	if !errors.Is(err, domain.ErrBatchLookupFailure) {
		t.Fatalf("expected ErrBatchLookupFailure, got %v", err)
	}
}

func TestProfile_InvalidPoints(t *testing.T) {
	svc := usecases.NewProfileService(&mockProvider{}, nil, nil)
	for _, n := range []int{1, -5, usecases.MaxProfilePoints + 1} {
		if _, err := svc.Profile(context.Background(), "", -42.5, -73.8, -73.5, n); !errors.Is(err, domain.ErrInvalidConfiguration) {
			t.Errorf("n=%d: expected ErrInvalidConfiguration, got %v", n, err)
		}
	}
	if _, err := svc.Profile(context.Background(), "", -42.5, -73.5, -73.8, 10); !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("inverted longitudes: expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestProfileRegion_UsesMidLatitude(t *testing.T) {
	shape := orb.Polygon{orb.Ring{{-74, -43}, {-73, -43}, {-73, -42}, {-74, -42}, {-74, -43}}}
	poly, _ := domain.NewPolygon("Castro", "Chiloe", shape)
	regions := &mockRegions{regions: map[string]*domain.Polygon{"Castro": poly}}

	var got []domain.Coordinate
	p := &mockProvider{lookupBatchFn: func(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
		got = coords
		return make([]float64, len(coords)), nil
	}}

	prof, err := usecases.NewProfileService(p, regions, nil).ProfileRegion(context.Background(), "Castro", 5)
	if err != nil {
		t.Fatal(err)
	}
	if prof.Latitude != -42.5 {
		t.Errorf("expected mid latitude -42.5, got %v", prof.Latitude)
	}
	if len(got) != 5 || got[0].Lon != -74 || got[4].Lon != -73 {
		t.Errorf("unexpected coordinates %v", got)
	}

	if _, err := usecases.NewProfileService(p, regions, nil).ProfileRegion(context.Background(), "Ancud", 5); !errors.Is(err, domain.ErrRegionNotFound) {
		t.Errorf("expected ErrRegionNotFound, got %v", err)
	}
}
