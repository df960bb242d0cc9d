package sim

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// New2DPlot creates new plot of the simulation from the three data sources:
// truth:   ground truth positions
// measure: measurement values
// filter:  filter values
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * either of the supplied data matrices is nil
// * either of the supplied data matrices does not have at least 2 columns
// * gonum plot fails to be created
func New2DPlot(truth, measure, filter *mat.Dense) (*plot.Plot, error) {
	if truth == nil || measure == nil || filter == nil {
		return nil, fmt.Errorf("invalid data supplied")
	}

	_, ct := truth.Dims()
	_, cm := measure.Dims()
	_, cf := filter.Dims()

	if ct < 2 || cm < 2 || cf < 2 {
		return nil, fmt.Errorf("invalid data dimensions")
	}

	p := plot.New()

	p.Title.Text = "Tracking"
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	// Make a line plotter for ground truth
	truthLine, err := plotter.NewLine(makePoints(truth))
	if err != nil {
		return nil, err
	}
	truthLine.LineStyle.Color = color.RGBA{R: 255, B: 128, A: 255}
	truthLine.LineStyle.Width = vg.Points(1)

	p.Add(truthLine)
	p.Legend.Add("truth", truthLine)

	// Make a scatter plotter for measurement data
	measScatter, err := plotter.NewScatter(makePoints(measure))
	if err != nil {
		return nil, err
	}
	measScatter.GlyphStyle.Color = color.RGBA{G: 255, A: 128}
	measScatter.GlyphStyle.Radius = vg.Points(2)

	p.Add(measScatter)
	p.Legend.Add("measurement", measScatter)

	// Make a scatter plotter for filter data
	filterScatter, err := plotter.NewScatter(makePoints(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %v", err)
	}
	filterScatter.GlyphStyle.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}
	filterScatter.Shape = draw.CrossGlyph{}
	filterScatter.GlyphStyle.Radius = vg.Points(2)

	p.Add(filterScatter)
	p.Legend.Add("filtered", filterScatter)

	return p, nil
}

// NewErrorPlot creates new plot of measurement and estimate errors sampled every dt.
// It returns error if dt is not positive, if either error slice is empty
// or if the slices differ in length.
func NewErrorPlot(dt float64, measErr, estErr []float64) (*plot.Plot, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("invalid timestep: %v", dt)
	}

	if len(measErr) == 0 || len(measErr) != len(estErr) {
		return nil, fmt.Errorf("invalid error data: %d measurement and %d estimate errors", len(measErr), len(estErr))
	}

	p := plot.New()

	p.Title.Text = "Tracking error"
	p.X.Label.Text = "t"
	p.Y.Label.Text = "error"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	measLine, err := plotter.NewLine(makeTimeSeries(dt, measErr))
	if err != nil {
		return nil, err
	}
	measLine.LineStyle.Color = color.RGBA{G: 255, A: 255}

	p.Add(measLine)
	p.Legend.Add("measurement", measLine)

	estLine, err := plotter.NewLine(makeTimeSeries(dt, estErr))
	if err != nil {
		return nil, err
	}
	estLine.LineStyle.Color = color.RGBA{R: 255, A: 255}
	estLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(estLine)
	p.Legend.Add("filtered", estLine)

	return p, nil
}

func makePoints(m *mat.Dense) plotter.XYs {
	r, _ := m.Dims()
	pts := make(plotter.XYs, r)
	for i := 0; i < r; i++ {
		pts[i].X = m.At(i, 0)
		pts[i].Y = m.At(i, 1)
	}

	return pts
}

func makeTimeSeries(dt float64, vals []float64) plotter.XYs {
	pts := make(plotter.XYs, len(vals))
	for i := range vals {
		pts[i].X = float64(i) * dt
		pts[i].Y = vals[i]
	}

	return pts
}
