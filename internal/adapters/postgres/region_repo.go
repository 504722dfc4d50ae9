package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/relief/internal/core/domain"
)

// RegionRepo implements ports.RegionSource over a PostGIS regions table.
type RegionRepo struct {
	db *DB
}

// NewRegionRepo creates a new RegionRepo.
func NewRegionRepo(db *DB) *RegionRepo {
	return &RegionRepo{db: db}
}

// Names lists region names in group; an empty group lists all regions.
func (r *RegionRepo) Names(ctx context.Context, group string) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT name FROM regions
		WHERE $1 = '' OR lower(grp) = lower($1)
		ORDER BY name
	`, group)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan regions: %w", err)
	}
	return names, nil
}

// Region returns the named region.
func (r *RegionRepo) Region(ctx context.Context, name string) (*domain.Polygon, error) {
	var grp, shape string
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COALESCE(grp, ''), ST_AsGeoJSON(geom)
		FROM regions WHERE name = $1
	`, name).Scan(&grp, &shape)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", domain.ErrRegionNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get region %q: %w", name, err)
	}

	g, err := geojson.UnmarshalGeometry([]byte(shape))
	if err != nil {
		return nil, fmt.Errorf("decode region %q geometry: %w", name, err)
	}
	return domain.NewPolygon(name, grp, g.Coordinates)
}

// UpsertBatch inserts or replaces regions using pgx.Batch.
func (r *RegionRepo) UpsertBatch(ctx context.Context, regions []*domain.Polygon) error {
	batch := &pgx.Batch{}
	for _, p := range regions {
		shape, err := geojson.NewGeometry(p.Shape()).MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode region %q: %w", p.Name(), err)
		}
		batch.Queue(`
			INSERT INTO regions (name, grp, geom)
			VALUES ($1, $2, ST_Multi(ST_SetSRID(ST_GeomFromGeoJSON($3), 4326)))
			ON CONFLICT (name) DO UPDATE
			SET grp = EXCLUDED.grp, geom = EXCLUDED.geom, updated_at = now()
		`, p.Name(), p.Group(), string(shape))
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range regions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}
