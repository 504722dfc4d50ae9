// Package app wires configuration into the adapters and services shared by
// the relief commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/samirrijal/relief/internal/adapters/boundaries"
	natsadapter "github.com/samirrijal/relief/internal/adapters/nats"
	"github.com/samirrijal/relief/internal/adapters/openelevation"
	"github.com/samirrijal/relief/internal/adapters/postgres"
	"github.com/samirrijal/relief/internal/adapters/report"
	"github.com/samirrijal/relief/internal/core/ports"
	"github.com/samirrijal/relief/internal/core/usecases"
	"github.com/samirrijal/relief/internal/pkg/config"
	"github.com/samirrijal/relief/internal/pkg/logging"
	"github.com/samirrijal/relief/internal/pkg/telemetry"
)

// App holds the wired services for one process.
type App struct {
	Config    *config.Config
	Provider  ports.ElevationProvider
	Source    ports.RegionSource
	DB        *postgres.DB           // nil unless regions.backend is postgres
	Publisher *natsadapter.Publisher // nil unless nats.url is set
	Analyses  *usecases.AnalysisService
	Profiles  *usecases.ProfileService
	Regions   *usecases.RegionService

	closers []func()
}

// New loads configuration for service, sets up logging and tracing, and
// connects the configured backends. Optional backends (tracing, NATS) only
// log a warning when unavailable.
func New(ctx context.Context, service string) (*App, error) {
	cfg, err := config.Load(service)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	a := &App{Config: cfg}

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, telemetry.Options{
			ServiceName: cfg.Telemetry.ServiceName,
			Exporter:    cfg.Telemetry.Exporter,
			Endpoint:    cfg.Telemetry.Endpoint,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			a.closers = append(a.closers, shutdown)
		}
	}

	switch cfg.Regions.Backend {
	case config.BackendPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("database: %w", err)
		}
		a.DB = db
		a.closers = append(a.closers, db.Close)
		a.Source = postgres.NewRegionRepo(db)
	default:
		src, err := boundaries.Load(cfg.Regions.Path, cfg.Regions.NameKey, cfg.Regions.GroupKey)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Rectangles and explicit profiles still work without boundaries.
			slog.Warn("region boundaries not found, named regions are unavailable", "path", cfg.Regions.Path)
			src = boundaries.Empty()
		case err != nil:
			a.Close()
			return nil, fmt.Errorf("regions: %w", err)
		}
		a.Source = src
	}

	var publisher ports.ResultPublisher
	if cfg.NATS.URL != "" {
		p, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, results will not be published", "error", err)
		} else {
			a.Publisher = p
			a.closers = append(a.closers, p.Close)
			publisher = p
		}
	}

	a.Provider = openelevation.New(cfg.Elevation.URL, cfg.Elevation.Timeout)
	sampler := usecases.NewSampler(a.Provider, cfg.Elevation.RequestInterval)
	a.Analyses = usecases.NewAnalysisService(sampler, a.Source, publisher)
	a.Profiles = usecases.NewProfileService(a.Provider, a.Source, publisher)
	a.Regions = usecases.NewRegionService(a.Source, cfg.Regions.Group)

	return a, nil
}

// Reporter returns a reporter writing text to w and plots to report.plot_dir.
func (a *App) Reporter(w io.Writer) ports.Reporter {
	return report.NewPlotter(w, a.Config.Report.Language, a.Config.Report.PlotDir)
}

// Close releases backends in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
