package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/samirrijal/relief/internal/adapters/tui"
	"github.com/samirrijal/relief/internal/app"
	"github.com/samirrijal/relief/internal/core/domain"
)

func main() {
	os.Exit(run())
}

// run returns the process exit status so deferred cleanup always happens.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, "relief-picker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup: %v\n", err)
		return 1
	}
	defer a.Close()

	names, err := a.Regions.List(ctx, "")
	if err != nil {
		slog.Error("list regions failed", "error", err)
		return 1
	}

	sel, err := pick(ctx, a.Config.Regions.Group, names)
	if errors.Is(err, tui.ErrQuit) || errors.Is(err, context.Canceled) {
		return 0
	}
	if err != nil {
		slog.Error("picker failed", "error", err)
		return 1
	}

	if err := process(ctx, a, sel); err != nil {
		slog.Error("picker run failed", "region", sel.Region, "error", err)
		return 1
	}
	return 0
}

// pick shows the panel and releases the terminal before returning.
func pick(ctx context.Context, title string, names []string) (tui.Selection, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return tui.Selection{}, err
	}
	if err := screen.Init(); err != nil {
		return tui.Selection{}, err
	}
	defer screen.Fini()

	if title == "" {
		title = "Regions"
	}
	return tui.New(screen, title, names).Run(ctx)
}

// process runs the action chosen in the panel.
func process(ctx context.Context, a *app.App, sel tui.Selection) error {
	r := a.Reporter(os.Stdout)

	if sel.Action == tui.ActionProfile {
		profile, err := a.Profiles.ProfileRegion(ctx, sel.Region, a.Config.Elevation.ProfilePoints)
		if err != nil {
			return err
		}
		if err := r.Table(profile.Points); err != nil {
			return err
		}
		return r.ProfilePlot(*profile)
	}

	region, err := a.Regions.Get(ctx, sel.Region)
	if err != nil {
		return err
	}
	if err := r.ShapePlot(region); err != nil {
		return err
	}

	result, err := a.Analyses.Analyze(ctx, domain.NewAnalysisRequest(region, sel.Resolution), func(i, n int, s domain.ElevationSample) {
		if s.Err != nil {
			slog.Warn("sample failed", "index", i, "total", n, "coordinate", s.Coordinate.String(), "error", s.Err)
		}
	})
	if err != nil {
		return err
	}

	if err := r.Table(result.Points()); err != nil {
		return err
	}
	return r.Summary(result.Tally)
}
