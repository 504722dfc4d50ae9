package boundaries

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/relief/internal/core/domain"
)

// Default property keys of the Chiloé comunas dataset.
const (
	DefaultNameKey  = "comuna"
	DefaultGroupKey = "region"
)

// Source implements ports.RegionSource over a GeoJSON FeatureCollection.
// The file is parsed once; lookups are read-only.
type Source struct {
	byName map[string]*domain.Polygon
	names  []string
}

// Load reads and indexes a GeoJSON file.
func Load(path, nameKey, groupKey string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data, nameKey, groupKey)
}

// Empty returns a source with no regions; every lookup reports
// domain.ErrRegionNotFound.
func Empty() *Source {
	return &Source{byName: map[string]*domain.Polygon{}}
}

// Parse indexes a GeoJSON FeatureCollection. Features sharing a name are
// merged into one MultiPolygon; features without a name or with non-areal
// geometry are skipped.
func Parse(data []byte, nameKey, groupKey string) (*Source, error) {
	if nameKey == "" {
		nameKey = DefaultNameKey
	}
	if groupKey == "" {
		groupKey = DefaultGroupKey
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	shapes := make(map[string]orb.MultiPolygon)
	groups := make(map[string]string)
	for _, f := range fc.Features {
		name := strings.TrimSpace(f.Properties.MustString(nameKey, ""))
		if name == "" {
			continue
		}
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			shapes[name] = append(shapes[name], g)
		case orb.MultiPolygon:
			shapes[name] = append(shapes[name], g...)
		default:
			continue
		}
		if _, ok := groups[name]; !ok {
			groups[name] = f.Properties.MustString(groupKey, "")
		}
	}

	s := &Source{byName: make(map[string]*domain.Polygon, len(shapes))}
	for name, mp := range shapes {
		p, err := domain.NewPolygon(name, groups[name], mp)
		if err != nil {
			return nil, err
		}
		s.byName[name] = p
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)
	return s, nil
}

// Names lists region names in group; an empty group lists all regions.
// Group matching ignores case.
func (s *Source) Names(_ context.Context, group string) ([]string, error) {
	out := make([]string, 0, len(s.names))
	for _, n := range s.names {
		if group == "" || strings.EqualFold(s.byName[n].Group(), group) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Region returns the named region.
func (s *Source) Region(_ context.Context, name string) (*domain.Polygon, error) {
	p, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrRegionNotFound, name)
	}
	return p, nil
}

// Regions returns the regions of group in name order; an empty group
// returns all of them.
func (s *Source) Regions(group string) []*domain.Polygon {
	out := make([]*domain.Polygon, 0, len(s.names))
	for _, n := range s.names {
		if p := s.byName[n]; group == "" || strings.EqualFold(p.Group(), group) {
			out = append(out, p)
		}
	}
	return out
}

// Feature renders a region as a GeoJSON feature.
func Feature(p *domain.Polygon, nameKey, groupKey string) *geojson.Feature {
	if nameKey == "" {
		nameKey = DefaultNameKey
	}
	if groupKey == "" {
		groupKey = DefaultGroupKey
	}
	f := geojson.NewFeature(p.Shape())
	f.Properties[nameKey] = p.Name()
	f.Properties[groupKey] = p.Group()
	b := p.Bounds()
	f.BBox = geojson.BBox{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
	return f
}
