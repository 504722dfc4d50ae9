package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samirrijal/relief/internal/adapters/report"
	"github.com/samirrijal/relief/internal/app"
	"github.com/samirrijal/relief/internal/core/domain"
	"github.com/samirrijal/relief/internal/core/ports"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitLookup   = 3
	exitCanceled = 130
)

const usage = `usage: analyze <command> [flags]

commands:
  rect     analyze a latitude/longitude rectangle
  region   analyze a named region
  profile  sample an elevation profile
  regions  list region names
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, usage)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, "relief-analyze")
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup: %v\n", err)
		return exitCode(err)
	}
	defer a.Close()

	switch args[0] {
	case "rect":
		err = runRect(ctx, a, args[1:])
	case "region":
		err = runRegion(ctx, a, args[1:])
	case "profile":
		err = runProfile(ctx, a, args[1:])
	case "regions":
		err = runRegions(ctx, a, args[1:])
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", args[0], usage)
		return exitUsage
	}

	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			slog.Error("analyze failed", "command", args[0], "error", err)
		}
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitCanceled
	case errors.Is(err, domain.ErrInvalidConfiguration):
		return exitUsage
	case errors.Is(err, domain.ErrBatchLookupFailure), errors.Is(err, domain.ErrLookupFailure):
		return exitLookup
	default:
		return exitFailure
	}
}

func runRect(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("rect", flag.ContinueOnError)
	latMin := fs.Float64("lat-min", 0, "southern latitude")
	latMax := fs.Float64("lat-max", 0, "northern latitude")
	lonMin := fs.Float64("lon-min", 0, "western longitude")
	lonMax := fs.Float64("lon-max", 0, "eastern longitude")
	step := fs.Float64("step", 0, "grid step in degrees (overrides -resolution)")
	cellArea := fs.Float64("cell-area", 0, "km² per sampled point (with -step)")
	resolution := fs.String("resolution", domain.Medium.Name, "fine, medium or coarse")
	shape := fs.Bool("shape", false, "render the rectangle to report.plot_dir")
	out := fs.String("o", "", "also write the table and summary to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rect, err := domain.NewRectangle(*latMin, *latMax, *lonMin, *lonMax)
	if err != nil {
		return err
	}
	req, err := buildRequest(rect, *resolution, *step, *cellArea)
	if err != nil {
		return err
	}
	return analyze(ctx, a, req, *shape, *out)
}

func runRegion(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("region", flag.ContinueOnError)
	name := fs.String("name", "", "region name")
	resolution := fs.String("resolution", domain.Medium.Name, "fine, medium or coarse")
	step := fs.Float64("step", 0, "grid step in degrees (overrides -resolution)")
	cellArea := fs.Float64("cell-area", 0, "km² per sampled point (with -step)")
	shape := fs.Bool("shape", false, "render the region outline to report.plot_dir")
	out := fs.String("o", "", "also write the table and summary to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("%w: -name is required", domain.ErrInvalidConfiguration)
	}

	region, err := a.Regions.Get(ctx, *name)
	if err != nil {
		return err
	}
	req, err := buildRequest(region, *resolution, *step, *cellArea)
	if err != nil {
		return err
	}
	return analyze(ctx, a, req, *shape, *out)
}

func runProfile(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	name := fs.String("name", "", "region name")
	lat := fs.Float64("lat", 0, "profile latitude")
	lonMin := fs.Float64("lon-min", 0, "western longitude")
	lonMax := fs.Float64("lon-max", 0, "eastern longitude")
	label := fs.String("label", "", "profile label")
	points := fs.Int("points", a.Config.Elevation.ProfilePoints, "number of samples")
	plot := fs.Bool("plot", false, "render the profile to report.plot_dir")
	out := fs.String("o", "", "also write the table to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		profile *domain.Profile
		err     error
	)
	if *name != "" {
		profile, err = a.Profiles.ProfileRegion(ctx, *name, *points)
	} else {
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if !set["lat"] || !set["lon-min"] || !set["lon-max"] {
			return fmt.Errorf("%w: -name or -lat, -lon-min and -lon-max are required", domain.ErrInvalidConfiguration)
		}
		profile, err = a.Profiles.Profile(ctx, *label, *lat, *lonMin, *lonMax, *points)
	}
	if err != nil {
		return err
	}

	r, closeOut, err := reporter(a, *plot, *out)
	if err != nil {
		return err
	}
	defer closeOut()

	if err := r.Table(profile.Points); err != nil {
		return err
	}
	if *plot {
		return r.ProfilePlot(*profile)
	}
	return nil
}

func runRegions(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("regions", flag.ContinueOnError)
	group := fs.String("group", "", "region group (default regions.group)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	names, err := a.Regions.List(ctx, *group)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(os.Stdout, n)
	}
	return nil
}

// buildRequest prefers an explicit step over the named preset.
func buildRequest(region domain.Region, resolution string, step, cellArea float64) (domain.AnalysisRequest, error) {
	if step != 0 || cellArea != 0 {
		req := domain.AnalysisRequest{Region: region, Step: step, CellArea: cellArea}
		return req, req.Validate()
	}
	res, err := domain.ResolutionByName(resolution)
	if err != nil {
		return domain.AnalysisRequest{}, err
	}
	req := domain.NewAnalysisRequest(region, res)
	return req, req.Validate()
}

func analyze(ctx context.Context, a *app.App, req domain.AnalysisRequest, shape bool, out string) error {
	r, closeOut, err := reporter(a, shape, out)
	if err != nil {
		return err
	}
	defer closeOut()

	if shape {
		if err := r.ShapePlot(req.Region); err != nil {
			return err
		}
	}

	result, err := a.Analyses.Analyze(ctx, req, logProgress)
	if err != nil {
		// Cancellation still reports what was sampled so far.
		if result != nil && errors.Is(err, context.Canceled) {
			_ = r.Table(result.Points())
			_ = r.Summary(result.Tally)
		}
		return err
	}

	if err := r.Table(result.Points()); err != nil {
		return err
	}
	return r.Summary(result.Tally)
}

// reporter writes to stdout, rendering plots when asked. A non-empty out
// also receives a text copy of everything printed.
func reporter(a *app.App, plots bool, out string) (ports.Reporter, func(), error) {
	var r ports.Reporter = report.NewText(os.Stdout, a.Config.Report.Language)
	if plots {
		r = a.Reporter(os.Stdout)
	}
	if out == "" {
		return r, func() {}, nil
	}

	f, err := os.Create(out)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: output file: %v", domain.ErrInvalidConfiguration, err)
	}
	closeOut := func() {
		if err := f.Close(); err != nil {
			slog.Warn("close output file", "path", out, "error", err)
		}
	}
	return report.Multi{r, report.NewText(f, a.Config.Report.Language)}, closeOut, nil
}

func logProgress(i, n int, s domain.ElevationSample) {
	if s.Err != nil {
		slog.Warn("sample failed", "index", i, "total", n, "coordinate", s.Coordinate.String(), "error", s.Err)
		return
	}
	slog.Debug("sampled", "index", i, "total", n, "coordinate", s.Coordinate.String(), "elevation", *s.Elevation)
}
