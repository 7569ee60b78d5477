package report

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"cyclestat/pkg/errors"
)

var (
	pointColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	fillColor  = color.RGBA{R: 100, G: 149, B: 237, A: 255}
	guideColor = color.RGBA{R: 178, G: 34, B: 34, A: 255}
)

// WriteHistogram renders the raw and log10 ridership distributions side
// by side and returns the written path.
func WriteHistogram(dir string, trips, logTrips []float64, bins int) (string, error) {
	raw, err := histPanel("trips", trips, bins)
	if err != nil {
		return "", err
	}
	logp, err := histPanel("log10(trips)", logTrips, bins)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "histogram_trips.png")
	err = writePNGGrid(path, [][]*plot.Plot{{raw, logp}}, 5*vg.Inch, 4*vg.Inch)
	return path, err
}

// WriteScatterGrid renders log ridership against every candidate
// predictor, four panels per row, and returns the written path.
func WriteScatterGrid(dir string, logTrips []float64, candidates []string, X *mat.Dense) (string, error) {
	n, p := X.Dims()
	if p != len(candidates) {
		return "", errors.NewDimensionError("report.WriteScatterGrid", len(candidates), p, 1)
	}
	if n != len(logTrips) {
		return "", errors.NewDimensionError("report.WriteScatterGrid", n, len(logTrips), 0)
	}

	const cols = 4
	rows := (p + cols - 1) / cols
	grid := make([][]*plot.Plot, rows)
	for r := range grid {
		grid[r] = make([]*plot.Plot, cols)
	}

	for j, name := range candidates {
		pts := make(plotter.XYs, n)
		for i := 0; i < n; i++ {
			pts[i] = plotter.XY{X: X.At(i, j), Y: logTrips[i]}
		}
		panel, err := scatterPanel(name, name, "log10(trips)", pts)
		if err != nil {
			return "", err
		}
		grid[j/cols][j%cols] = panel
	}

	path := filepath.Join(dir, "scatter_predictors.png")
	err := writePNGGrid(path, grid, 3.5*vg.Inch, 3*vg.Inch)
	return path, err
}

// corrGrid adapts a symmetric correlation matrix to the heat map grid.
type corrGrid struct {
	m *mat.SymDense
}

func (g corrGrid) Dims() (c, r int) {
	p := g.m.SymmetricDim()
	return p, p
}
func (g corrGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// WriteCorrelationHeatmap renders the Spearman matrix on a fixed [-1, 1]
// diverging scale with the predictor names on both axes.
func WriteCorrelationHeatmap(dir string, m *mat.SymDense, terms []string) (string, error) {
	if m.SymmetricDim() != len(terms) {
		return "", errors.NewDimensionError("report.WriteCorrelationHeatmap", len(terms), m.SymmetricDim(), 1)
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	heat := plotter.NewHeatMap(corrGrid{m: m}, cmap.Palette(255))
	heat.Min, heat.Max = -1, 1

	p := plot.New()
	p.Title.Text = "Spearman rank correlation"
	p.Add(heat)

	ticks := make([]plot.Tick, len(terms))
	for i, t := range terms {
		ticks[i] = plot.Tick{Value: float64(i), Label: t}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	path := filepath.Join(dir, "correlation_heatmap.png")
	if err := p.Save(8*vg.Inch, 7*vg.Inch, path); err != nil {
		return "", errors.Wrapf(err, "report: save %s", path)
	}
	return path, nil
}

// WriteDiagnostics renders the four standard residual panels of one fit:
// residuals vs fitted, normal Q-Q, scale-location, residuals vs leverage.
func WriteDiagnostics(dir string, fit Fit) (string, error) {
	s := fit.Summary
	n := len(s.Fitted)

	residPts := make(plotter.XYs, n)
	scalePts := make(plotter.XYs, n)
	levPts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		residPts[i] = plotter.XY{X: s.Fitted[i], Y: s.Residuals[i]}
		scalePts[i] = plotter.XY{X: s.Fitted[i], Y: math.Sqrt(math.Abs(s.StdResiduals[i]))}
		levPts[i] = plotter.XY{X: s.Leverage[i], Y: s.StdResiduals[i]}
	}

	residPanel, err := scatterPanel("Residuals vs fitted", "fitted", "residuals", residPts)
	if err != nil {
		return "", err
	}
	if err := addZeroLine(residPanel, s.Fitted); err != nil {
		return "", err
	}

	qqPanel, err := qqPlot(s.StdResiduals)
	if err != nil {
		return "", err
	}

	scalePanel, err := scatterPanel("Scale-location", "fitted", "sqrt(|std residuals|)", scalePts)
	if err != nil {
		return "", err
	}

	levPanel, err := scatterPanel("Residuals vs leverage", "leverage", "std residuals", levPts)
	if err != nil {
		return "", err
	}
	if err := addZeroLine(levPanel, s.Leverage); err != nil {
		return "", err
	}

	path := filepath.Join(dir, "diagnostics_"+fit.ID+".png")
	err = writePNGGrid(path, [][]*plot.Plot{
		{residPanel, qqPanel},
		{scalePanel, levPanel},
	}, 5*vg.Inch, 4*vg.Inch)
	return path, err
}

// WriteFigures renders every figure of the bundle and returns the
// written paths.
func WriteFigures(dir string, b *Bundle, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "report: create %s", dir)
	}

	var paths []string
	hist, err := WriteHistogram(dir, b.Trips, b.LogTrips, opts.HistogramBins)
	if err != nil {
		return nil, err
	}
	paths = append(paths, hist)

	scatter, err := WriteScatterGrid(dir, b.LogTrips, b.Candidates, b.X)
	if err != nil {
		return nil, err
	}
	paths = append(paths, scatter)

	if b.Spearman != nil {
		heat, err := WriteCorrelationHeatmap(dir, b.Spearman, b.Candidates)
		if err != nil {
			return nil, err
		}
		paths = append(paths, heat)
	}

	for _, fit := range b.Fits {
		diag, err := WriteDiagnostics(dir, fit)
		if err != nil {
			return nil, err
		}
		paths = append(paths, diag)
	}
	return paths, nil
}

func histPanel(title string, vals []float64, bins int) (*plot.Plot, error) {
	h, err := plotter.NewHist(plotter.Values(vals), bins)
	if err != nil {
		return nil, errors.Wrap(err, "report: histogram")
	}
	h.FillColor = fillColor

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = title
	p.Y.Label.Text = "count"
	p.Add(h)
	return p, nil
}

func scatterPanel(title, xlab, ylab string, pts plotter.XYs) (*plot.Plot, error) {
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, errors.Wrap(err, "report: scatter")
	}
	sc.GlyphStyle.Color = pointColor
	sc.GlyphStyle.Radius = vg.Points(2)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlab
	p.Y.Label.Text = ylab
	p.Add(sc)
	return p, nil
}

// qqPlot draws sorted standardized residuals against normal quantiles at
// the Blom plotting positions, with an identity guide line.
func qqPlot(stdResiduals []float64) (*plot.Plot, error) {
	sorted := append([]float64(nil), stdResiduals...)
	sort.Float64s(sorted)

	n := len(sorted)
	norm := distuv.UnitNormal
	pts := make(plotter.XYs, n)
	for i, r := range sorted {
		q := norm.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		pts[i] = plotter.XY{X: q, Y: r}
	}

	p, err := scatterPanel("Normal Q-Q", "theoretical quantiles", "std residuals", pts)
	if err != nil {
		return nil, err
	}

	lo, hi := pts[0].X, pts[n-1].X
	guide, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return nil, errors.Wrap(err, "report: qq guide line")
	}
	guide.LineStyle.Color = guideColor
	guide.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	p.Add(guide)
	return p, nil
}

// addZeroLine draws a dashed y=0 guide across the x range of the data.
func addZeroLine(p *plot.Plot, xs []float64) error {
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	line, err := plotter.NewLine(plotter.XYs{{X: lo, Y: 0}, {X: hi, Y: 0}})
	if err != nil {
		return errors.Wrap(err, "report: zero line")
	}
	line.LineStyle.Color = guideColor
	line.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	p.Add(line)
	return nil
}

// writePNGGrid aligns the panels on a shared tile layout and writes one
// PNG. Nil grid cells stay blank. Panel sizes are per tile.
func writePNGGrid(path string, plots [][]*plot.Plot, panelW, panelH vg.Length) error {
	rows := len(plots)
	cols := 0
	for _, r := range plots {
		if len(r) > cols {
			cols = len(r)
		}
	}
	// Align indexes every cell of the tile grid, so rows must be full width.
	for i := range plots {
		for len(plots[i]) < cols {
			plots[i] = append(plots[i], nil)
		}
	}

	img := vgimg.New(panelW*vg.Length(cols), panelH*vg.Length(rows))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 2,
		PadY:      vg.Millimeter * 2,
		PadTop:    vg.Millimeter,
		PadBottom: vg.Millimeter,
		PadLeft:   vg.Millimeter,
		PadRight:  vg.Millimeter,
	}

	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}

	w, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "report: create %s", path)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		w.Close()
		return errors.Wrapf(err, "report: encode %s", path)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "report: close %s", path)
	}
	return nil
}
