package report

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/samirrijal/relief/internal/core/domain"
)

// regionColor is the fill used for region shapes and profile lines.
var regionColor = color.RGBA{R: 0x47, G: 0x41, B: 0x96, A: 0xff}

// Plotter renders profiles and region shapes as PNG files in a directory.
// Tables and summaries go to the embedded Text reporter.
type Plotter struct {
	*Text
	dir string
}

// NewPlotter creates a plot reporter writing images under dir.
func NewPlotter(w io.Writer, lang, dir string) *Plotter {
	return &Plotter{Text: NewText(w, lang), dir: dir}
}

// ProfilePlot draws longitude against elevation.
func (p *Plotter) ProfilePlot(prof domain.Profile) error {
	pl, err := ProfileChart(prof)
	if err != nil {
		return err
	}
	return p.save(pl, 10*vg.Inch, 5*vg.Inch, "profile-"+fileToken(prof.Region)+".png")
}

// ShapePlot draws the region boundary as filled polygons.
func (p *Plotter) ShapePlot(r domain.Region) error {
	pl, err := ShapeChart(r)
	if err != nil {
		return err
	}
	return p.save(pl, 6*vg.Inch, 6*vg.Inch, "shape-"+fileToken(r.Name())+".png")
}

func (p *Plotter) save(pl *plot.Plot, w, h vg.Length, name string) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	path := filepath.Join(p.dir, name)
	if err := pl.Save(w, h, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	fmt.Fprintf(p.w, "plot written to %s\n", path)
	return nil
}

// ProfileChart builds the elevation profile plot.
func ProfileChart(prof domain.Profile) (*plot.Plot, error) {
	if len(prof.Points) == 0 {
		return nil, fmt.Errorf("profile %q has no points", prof.Region)
	}

	pts := make(plotter.XYs, len(prof.Points))
	for i, pt := range prof.Points {
		pts[i].X = pt.Lon
		pts[i].Y = pt.Elevation
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("Elevation profile of %s (lat %.4f)", prof.Region, prof.Latitude)
	pl.X.Label.Text = "Longitude (°)"
	pl.Y.Label.Text = "Elevation (m)"
	pl.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("profile line: %w", err)
	}
	line.Color = regionColor
	points.Color = regionColor
	points.Shape = draw.CircleGlyph{}
	pl.Add(line, points)

	return pl, nil
}

// ShapeChart builds the region shape plot, one filled polygon per part
// with its holes. Rectangles are drawn as a single box.
func ShapeChart(r domain.Region) (*plot.Plot, error) {
	var parts [][]plotter.XYer
	switch s := r.(type) {
	case *domain.Polygon:
		for _, poly := range s.Shape() {
			rings := make([]plotter.XYer, 0, len(poly))
			for _, ring := range poly {
				xys := make(plotter.XYs, len(ring))
				for i, pt := range ring {
					xys[i].X, xys[i].Y = pt.Lon(), pt.Lat()
				}
				rings = append(rings, xys)
			}
			parts = append(parts, rings)
		}
	default:
		b := r.Bounds()
		parts = append(parts, []plotter.XYer{plotter.XYs{
			{X: b.MinLon, Y: b.MinLat},
			{X: b.MaxLon, Y: b.MinLat},
			{X: b.MaxLon, Y: b.MaxLat},
			{X: b.MinLon, Y: b.MaxLat},
		}})
	}

	pl := plot.New()
	pl.Title.Text = "Shape of " + r.Name()
	pl.X.Label.Text = "Longitude (°)"
	pl.Y.Label.Text = "Latitude (°)"

	for _, rings := range parts {
		poly, err := plotter.NewPolygon(rings...)
		if err != nil {
			return nil, fmt.Errorf("shape polygon: %w", err)
		}
		poly.Color = regionColor
		pl.Add(poly)
	}

	return pl, nil
}

func fileToken(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, name)
}
