// Package draw renders probe result vectors to chart image files. It
// consumes only the public probe surface and sits outside the simulation
// path entirely.
package draw

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/MoleSir/reda/pkg/probe"
	"github.com/MoleSir/reda/pkg/unit"
)

// Drawer plots selected vectors of a result against its independent axis.
type Drawer struct {
	width  vg.Length
	height vg.Length
	title  string
}

type Option func(*Drawer)

func WithSize(width, height vg.Length) Option {
	return func(d *Drawer) { d.width, d.height = width, height }
}

func WithTitle(title string) Option {
	return func(d *Drawer) { d.title = title }
}

func New(opts ...Option) *Drawer {
	d := &Drawer{width: 8 * vg.Inch, height: 4 * vg.Inch}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Draw writes the named vectors of res as line series to path. The image
// format follows the path extension (.png, .svg, .pdf).
func (d *Drawer) Draw(res *probe.Result, names []string, path string) error {
	p := plot.New()
	p.Title.Text = d.title
	p.X.Label.Text = res.AxisName()
	p.Add(plotter.NewGrid())

	axis := res.Axis()
	for i, name := range names {
		v, err := res.Vector(name)
		if err != nil {
			return fmt.Errorf("draw %s: %w", name, err)
		}

		pts := make(plotter.XYs, len(axis))
		for j := range axis {
			pts[j].X = axis[j]
			pts[j].Y = v.Values[j]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("draw %s: %w", name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(name, line)
	}

	if err := p.Save(d.width, d.height, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}

// DrawNodes plots every node-voltage vector of res.
func (d *Drawer) DrawNodes(res *probe.Result, path string) error {
	var names []string
	for _, v := range res.Vectors() {
		if v.Dim == unit.Voltage {
			names = append(names, v.Name)
		}
	}
	return d.Draw(res, names, path)
}
