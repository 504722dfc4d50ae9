package report

import (
	"errors"

	"github.com/samirrijal/relief/internal/core/domain"
	"github.com/samirrijal/relief/internal/core/ports"
)

// Multi fans every call out to several reporters and joins their errors.
type Multi []ports.Reporter

func (m Multi) Table(points []domain.ProfilePoint) error {
	return m.each(func(r ports.Reporter) error { return r.Table(points) })
}

func (m Multi) Summary(t domain.AreaTally) error {
	return m.each(func(r ports.Reporter) error { return r.Summary(t) })
}

func (m Multi) ProfilePlot(p domain.Profile) error {
	return m.each(func(r ports.Reporter) error { return r.ProfilePlot(p) })
}

func (m Multi) ShapePlot(region domain.Region) error {
	return m.each(func(r ports.Reporter) error { return r.ShapePlot(region) })
}

func (m Multi) each(fn func(ports.Reporter) error) error {
	var errs []error
	for _, r := range m {
		if err := fn(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
