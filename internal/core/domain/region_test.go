package domain_test

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/relief/internal/core/domain"
)

func square() orb.Polygon {
	return orb.Polygon{orb.Ring{
		{-74, -43}, {-73, -43}, {-73, -42}, {-74, -42}, {-74, -43},
	}}
}

func TestNewRectangle_Invalid(t *testing.T) {
	cases := [][4]float64{
		{-43.05, -43.15, -73.65, -73.55}, // lat inverted
		{-43.15, -43.05, -73.55, -73.65}, // lon inverted
		{-91, -43.05, -73.65, -73.55},
	}
	for _, c := range cases {
		if _, err := domain.NewRectangle(c[0], c[1], c[2], c[3]); !errors.Is(err, domain.ErrInvalidConfiguration) {
			t.Errorf("NewRectangle(%v): expected ErrInvalidConfiguration, got %v", c, err)
		}
	}
}

func TestPolygon_Bounds(t *testing.T) {
	p, err := domain.NewPolygon("Quellón", "Chiloe", square())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.Bounds{MinLat: -43, MinLon: -74, MaxLat: -42, MaxLon: -73}
	if p.Bounds() != want {
		t.Errorf("bounds = %+v, want %+v", p.Bounds(), want)
	}
	if p.Name() != "Quellón" || p.Group() != "Chiloe" {
		t.Errorf("unexpected name/group %q/%q", p.Name(), p.Group())
	}
}

func TestPolygon_Contains(t *testing.T) {
	p, err := domain.NewPolygon("square", "", square())
	if err != nil {
		t.Fatal(err)
	}

	if !p.Contains(domain.Coordinate{Lat: -42.5, Lon: -73.5}) {
		t.Error("expected interior point to be a member")
	}
	if p.Contains(domain.Coordinate{Lat: -41.5, Lon: -73.5}) {
		t.Error("expected exterior point not to be a member")
	}
	if p.Contains(domain.Coordinate{Lat: -42.5, Lon: -72.9}) {
		t.Error("expected point east of the square not to be a member")
	}

	// Boundary policy is inclusive.
	if !p.Contains(domain.Coordinate{Lat: -43, Lon: -73.5}) {
		t.Error("expected point on an edge to be a member")
	}
	if !p.Contains(domain.Coordinate{Lat: -42, Lon: -74}) {
		t.Error("expected vertex to be a member")
	}
}

func TestPolygon_Hole(t *testing.T) {
	shape := square()
	shape = append(shape, orb.Ring{
		{-73.6, -42.6}, {-73.4, -42.6}, {-73.4, -42.4}, {-73.6, -42.4}, {-73.6, -42.6},
	})
	p, err := domain.NewPolygon("lake", "", shape)
	if err != nil {
		t.Fatal(err)
	}
	if p.Contains(domain.Coordinate{Lat: -42.5, Lon: -73.5}) {
		t.Error("expected point inside the hole not to be a member")
	}
	if !p.Contains(domain.Coordinate{Lat: -42.8, Lon: -73.8}) {
		t.Error("expected point outside the hole to be a member")
	}
}

func TestPolygon_MultiPolygon(t *testing.T) {
	island := orb.Polygon{orb.Ring{
		{-72, -44}, {-71.5, -44}, {-71.5, -43.5}, {-72, -43.5}, {-72, -44},
	}}
	p, err := domain.NewPolygon("archipelago", "", orb.MultiPolygon{square(), island})
	if err != nil {
		t.Fatal(err)
	}
	if !p.Contains(domain.Coordinate{Lat: -43.7, Lon: -71.7}) {
		t.Error("expected point on the island to be a member")
	}
	if p.Contains(domain.Coordinate{Lat: -43.2, Lon: -72.5}) {
		t.Error("expected point between islands not to be a member")
	}
	if got := p.Bounds(); got.MinLat != -44 || got.MaxLon != -71.5 {
		t.Errorf("unexpected bounds %+v", got)
	}
}

func TestNewPolygon_Rejects(t *testing.T) {
	if _, err := domain.NewPolygon("point", "", orb.Point{1, 2}); !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for a point, got %v", err)
	}
	if _, err := domain.NewPolygon("empty", "", orb.Polygon{}); !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for an empty polygon, got %v", err)
	}
	if _, err := domain.NewPolygon("nil", "", nil); !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for nil geometry, got %v", err)
	}
}

func TestResolutionByName(t *testing.T) {
	for in, want := range map[string]domain.Resolution{
		"fine": domain.Fine, "Medium": domain.Medium, "100": domain.Coarse, "10km2": domain.Medium,
	} {
		got, err := domain.ResolutionByName(in)
		if err != nil || got != want {
			t.Errorf("ResolutionByName(%q) = %+v, %v", in, got, err)
		}
	}
	if _, err := domain.ResolutionByName("huge"); !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}
