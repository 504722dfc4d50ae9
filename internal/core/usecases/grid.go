package usecases

import (
	"fmt"
	"iter"
	"math"

	"github.com/samirrijal/relief/internal/core/domain"
)

// gridEpsilon absorbs floating-point noise in (max-min)/step so that an
// exact multiple of the step does not gain an extra row or column.
const gridEpsilon = 1e-9

// MaxGridPoints bounds the number of coordinates one grid may hold.
const MaxGridPoints = 10_000_000

// Grid enumerates sample coordinates across a bounding box at a fixed
// angular step. Coordinates are computed from integer offsets, so the
// sequence is exact and restartable.
type Grid struct {
	bounds domain.Bounds
	step   float64
	rows   int
	cols   int
}

// NewGrid validates the bounds and step. Grids larger than MaxGridPoints
// are rejected.
func NewGrid(b domain.Bounds, step float64) (*Grid, error) {
	if math.IsNaN(step) || math.IsInf(step, 0) || step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %v", domain.ErrInvalidConfiguration, step)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	rows := axisCount(b.MinLat, b.MaxLat, step)
	cols := axisCount(b.MinLon, b.MaxLon, step)
	if math.IsInf(rows, 0) || math.IsInf(cols, 0) || rows*cols > MaxGridPoints {
		return nil, fmt.Errorf("%w: step %v yields more than %d grid points",
			domain.ErrInvalidConfiguration, step, MaxGridPoints)
	}
	return &Grid{
		bounds: b,
		step:   step,
		rows:   int(rows),
		cols:   int(cols),
	}, nil
}

// axisCount is ceil((max-min)/step)+1, left as a float so callers can
// bound it before converting.
func axisCount(min, max, step float64) float64 {
	n := math.Ceil((max-min)/step - gridEpsilon)
	if n < 0 {
		n = 0
	}
	return n + 1
}

func (g *Grid) Rows() int     { return g.rows }
func (g *Grid) Cols() int     { return g.cols }
func (g *Grid) Len() int      { return g.rows * g.cols }
func (g *Grid) Step() float64 { return g.step }

// At returns the i-th coordinate in row-major order (latitude outer).
func (g *Grid) At(i int) domain.Coordinate {
	row, col := i/g.cols, i%g.cols
	return domain.Coordinate{
		Lat: g.bounds.MinLat + float64(row)*g.step,
		Lon: g.bounds.MinLon + float64(col)*g.step,
	}
}

// All yields every coordinate exactly once, in row-major order.
func (g *Grid) All() iter.Seq[domain.Coordinate] {
	return func(yield func(domain.Coordinate) bool) {
		for i := 0; i < g.Len(); i++ {
			if !yield(g.At(i)) {
				return
			}
		}
	}
}

// Members returns the grid points that belong to region. Rectangles skip
// the membership test.
func Members(region domain.Region, g *Grid) []domain.Coordinate {
	out := make([]domain.Coordinate, 0, g.Len())
	_, rect := region.(*domain.Rectangle)
	for c := range g.All() {
		if rect || region.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}
