// Package report renders training history collected by a caller.
package report

import (
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/evoclass/pkg/errors"
	"github.com/YuminosukeSato/evoclass/training"
)

type options struct {
	title  string
	width  vg.Length
	height vg.Length
}

// Option configures a history chart.
type Option func(*options)

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(o *options) { o.title = title }
}

// WithSize sets the chart size in inches.
func WithSize(width, height float64) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width = vg.Length(width) * vg.Inch
			o.height = vg.Length(height) * vg.Inch
		}
	}
}

// PlotHistory writes a chart of the best training score, mean fitness and
// median fitness per generation to path. The format follows the extension
// (png, svg, pdf, ...).
func PlotHistory(history []training.Stats, path string, opts ...Option) error {
	p, o, err := build(history, opts)
	if err != nil {
		return err
	}
	if err := p.Save(o.width, o.height, path); err != nil {
		return errors.Wrapf(err, "save chart %s", filepath.Base(path))
	}
	return nil
}

// WriteHistory is PlotHistory for an io.Writer; format is an extension
// without the dot.
func WriteHistory(w io.Writer, history []training.Stats, format string, opts ...Option) error {
	p, o, err := build(history, opts)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(o.width, o.height, strings.ToLower(format))
	if err != nil {
		return errors.Wrapf(err, "chart format %q", format)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "write chart")
	}
	return nil
}

func build(history []training.Stats, opts []Option) (*plot.Plot, *options, error) {
	if len(history) == 0 {
		return nil, nil, errors.NewInsufficientDataError("plot_history", 1, 0)
	}
	o := &options{title: "Training progress", width: 8 * vg.Inch, height: 4 * vg.Inch}
	for _, opt := range opts {
		opt(o)
	}

	p := plot.New()
	p.Title.Text = o.title
	p.X.Label.Text = "generation"
	p.Y.Label.Text = history[0].Objective
	p.Add(plotter.NewGrid())

	series := []struct {
		name  string
		color color.Color
		dash  bool
		value func(training.Stats) float64
	}{
		{"training score", color.RGBA{R: 31, G: 119, B: 180, A: 255}, false, func(s training.Stats) float64 { return s.TrainingScore }},
		{"mean fitness", color.RGBA{R: 255, G: 127, B: 14, A: 255}, true, func(s training.Stats) float64 { return s.MeanFitness }},
		{"median fitness", color.RGBA{R: 44, G: 160, B: 44, A: 255}, true, func(s training.Stats) float64 { return s.MedianFitness }},
	}
	for _, s := range series {
		pts := make(plotter.XYs, len(history))
		for i, st := range history {
			pts[i].X = float64(st.Generation)
			pts[i].Y = s.value(st)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "plot %s", s.name)
		}
		line.Color = s.color
		if s.dash {
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		}
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	return p, o, nil
}
