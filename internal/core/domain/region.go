package domain

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Region is the geographic boundary an analysis samples. It is loaded once
// per request and read-only afterwards.
type Region interface {
	Name() string
	Bounds() Bounds
	// Contains reports grid membership.
	Contains(c Coordinate) bool
}

// Rectangle is an axis-aligned region. Every grid point generated from its
// bounds is a member.
type Rectangle struct {
	bounds Bounds
}

// NewRectangle validates the limits and returns the region.
func NewRectangle(latMin, latMax, lonMin, lonMax float64) (*Rectangle, error) {
	b := Bounds{MinLat: latMin, MinLon: lonMin, MaxLat: latMax, MaxLon: lonMax}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &Rectangle{bounds: b}, nil
}

func (r *Rectangle) Name() string {
	b := r.bounds
	return fmt.Sprintf("rect[%.4f,%.4f]x[%.4f,%.4f]", b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
}

func (r *Rectangle) Bounds() Bounds { return r.bounds }

// Contains always returns true; rectangle mode bypasses membership filtering.
func (r *Rectangle) Contains(Coordinate) bool { return true }

// Polygon is a named boundary from a region dataset. Islands are kept as
// separate polygons of one MultiPolygon.
type Polygon struct {
	name   string
	group  string
	shape  orb.MultiPolygon
	bounds Bounds
}

// NewPolygon builds a region from an orb Polygon or MultiPolygon.
func NewPolygon(name, group string, g orb.Geometry) (*Polygon, error) {
	var mp orb.MultiPolygon
	switch s := g.(type) {
	case orb.Polygon:
		mp = orb.MultiPolygon{s}
	case orb.MultiPolygon:
		mp = s
	case nil:
		return nil, fmt.Errorf("%w: region %q has no geometry", ErrInvalidConfiguration, name)
	default:
		return nil, fmt.Errorf("%w: region %q has unsupported geometry %s", ErrInvalidConfiguration, name, g.GeoJSONType())
	}

	vertices := 0
	for _, p := range mp {
		if len(p) > 0 {
			vertices += len(p[0])
		}
	}
	if vertices < 3 {
		return nil, fmt.Errorf("%w: region %q has an empty boundary", ErrInvalidConfiguration, name)
	}

	bound := mp.Bound()
	b := Bounds{
		MinLat: bound.Min.Lat(),
		MinLon: bound.Min.Lon(),
		MaxLat: bound.Max.Lat(),
		MaxLon: bound.Max.Lon(),
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("region %q: %w", name, err)
	}

	return &Polygon{name: name, group: group, shape: mp, bounds: b}, nil
}

func (p *Polygon) Name() string   { return p.name }
func (p *Polygon) Group() string  { return p.group }
func (p *Polygon) Bounds() Bounds { return p.bounds }

// Shape returns the underlying geometry. Callers must not modify it.
func (p *Polygon) Shape() orb.MultiPolygon { return p.shape }

// Contains reports whether c lies inside the polygon. Points on the outer
// boundary are inside; points in a hole, or on its edge, are outside.
func (p *Polygon) Contains(c Coordinate) bool {
	b := p.bounds
	if c.Lat < b.MinLat || c.Lat > b.MaxLat || c.Lon < b.MinLon || c.Lon > b.MaxLon {
		return false
	}
	return planar.MultiPolygonContains(p.shape, orb.Point{c.Lon, c.Lat})
}
