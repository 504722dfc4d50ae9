package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/relief/internal/core/domain"
	"github.com/samirrijal/relief/internal/core/ports"
)

// RegionService handles region lookups.
type RegionService struct {
	regions      ports.RegionSource
	defaultGroup string
}

// NewRegionService creates a new RegionService. defaultGroup is used when
// List is called with an empty group.
func NewRegionService(regions ports.RegionSource, defaultGroup string) *RegionService {
	return &RegionService{regions: regions, defaultGroup: defaultGroup}
}

// List returns region names in group.
func (s *RegionService) List(ctx context.Context, group string) ([]string, error) {
	if group == "" {
		group = s.defaultGroup
	}
	return s.regions.Names(ctx, group)
}

// Get returns a region by name.
func (s *RegionService) Get(ctx context.Context, name string) (*domain.Polygon, error) {
	return lookupRegion(ctx, s.regions, name)
}

func lookupRegion(ctx context.Context, regions ports.RegionSource, name string) (*domain.Polygon, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: region name must not be empty", domain.ErrInvalidConfiguration)
	}
	if regions == nil {
		return nil, fmt.Errorf("%w: no region source configured", domain.ErrInvalidConfiguration)
	}
	return regions.Region(ctx, name)
}
