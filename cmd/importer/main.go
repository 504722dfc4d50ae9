package main

import (
	"context"
	"flag"
	"iter"
	"log"
	"log/slog"

	"github.com/samirrijal/relief/internal/adapters/boundaries"
	"github.com/samirrijal/relief/internal/adapters/postgres"
	"github.com/samirrijal/relief/internal/core/domain"
	"github.com/samirrijal/relief/internal/pkg/config"
	"github.com/samirrijal/relief/internal/pkg/logging"
)

// batchSize is the number of regions per upsert batch.
const batchSize = 50

func main() {
	cfg, err := config.Load("relief-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	path := flag.String("file", cfg.Regions.Path, "GeoJSON FeatureCollection to import")
	group := flag.String("group", "", "only import regions of this group")
	flag.Parse()

	ctx := context.Background()

	src, err := boundaries.Load(*path, cfg.Regions.NameKey, cfg.Regions.GroupKey)
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	regions := src.Regions(*group)
	slog.Info("importing regions", "file", *path, "group", *group, "count", len(regions))

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	total, err := upsertAll(ctx, postgres.NewRegionRepo(db), regions)
	db.Close()
	if err != nil {
		log.Fatalf("upsert after %d regions: %v", total, err)
	}

	slog.Info("import complete", "regions", total)
}

// upsertAll writes regions in batches and reports how many were stored.
func upsertAll(ctx context.Context, repo *postgres.RegionRepo, regions []*domain.Polygon) (int, error) {
	total := 0
	for chunk := range chunks(regions, batchSize) {
		if err := repo.UpsertBatch(ctx, chunk); err != nil {
			return total, err
		}
		total += len(chunk)
		slog.Info("regions upserted", "done", total, "of", len(regions))
	}
	return total, nil
}

// chunks yields consecutive slices of at most n regions.
func chunks(regions []*domain.Polygon, n int) iter.Seq[[]*domain.Polygon] {
	return func(yield func([]*domain.Polygon) bool) {
		for start := 0; start < len(regions); start += n {
			if !yield(regions[start:min(start+n, len(regions))]) {
				return
			}
		}
	}
}
