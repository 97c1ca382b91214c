package laserball

import (
	"fmt"
	"image/color"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// PlotHistogram draws h and saves it to fname. The format follows the
// file extension.
func PlotHistogram(h *Histogram, title string, xlabel string, fname string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "Hits"

	hh := hplot.NewH1D(h.H1D())
	hh.LineStyle.Color = color.RGBA{A: 255}
	hh.Infos.Style = hplot.HInfoSummary
	p.Add(hh)

	if err := p.Save(plotWidth, plotHeight, fname); err != nil {
		return fmt.Errorf("error saving plot %s: %w", fname, err)
	}
	return nil
}

// RatioCurve is one set of ratio series drawn with a common style, e.g.
// the angle scan or the detector data.
type RatioCurve struct {
	Series []RatioSeries
	// Color overrides the palette when set.
	Color  color.Color
	Dashed bool
}

// PlotRatios draws normalised dichroicon occupancy versus source position.
func PlotRatios(curves []RatioCurve, title string, fname string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Source z [mm]"
	p.Y.Label.Text = "Dichroicon / barrel hits"
	p.Legend.Top = true

	i := 0
	for _, curve := range curves {
		for _, s := range curve.Series {
			xys := make(plotter.XYs, len(s.Points))
			for j, pt := range s.Points {
				xys[j].X, xys[j].Y = pt.ZPos, pt.Ratio
			}
			line, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("error drawing %s: %w", s.Label, err)
			}
			line.Color = plotutil.Color(i)
			if curve.Color != nil {
				line.Color = curve.Color
			}
			if curve.Dashed {
				line.Dashes = plotutil.Dashes(1)
			}
			p.Add(line)
			p.Legend.Add(s.Label, line)
			i++
		}
	}

	if err := p.Save(plotWidth, plotHeight, fname); err != nil {
		return fmt.Errorf("error saving plot %s: %w", fname, err)
	}
	return nil
}

// PlotRates draws the per-channel coincidence rate.
func PlotRates(res *CoincidenceResult, title string, fname string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Logical Channel Number"
	p.Y.Label.Text = "Coincidence Rate"

	xys := make(plotter.XYs, len(res.LCNs))
	for i, lcn := range res.LCNs {
		xys[i].X, xys[i].Y = float64(lcn), res.Rates[i]
	}
	pts, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	pts.Color = color.RGBA{A: 255}
	pts.Shape = plotutil.Shape(1)
	p.Add(pts, plotter.NewGrid())

	if err := p.Save(plotWidth, plotHeight, fname); err != nil {
		return fmt.Errorf("error saving plot %s: %w", fname, err)
	}
	return nil
}
