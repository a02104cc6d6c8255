package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/rustyeddy/stockdash/market"
)

// ErrEmptyFigure is returned when a figure has no points to draw.
var ErrEmptyFigure = errors.New("figure has no data")

// RenderOptions sizes the output image in pixels.
type RenderOptions struct {
	Width  int
	Height int
}

// DefaultRenderOptions matches the size the page gives each graph.
var DefaultRenderOptions = RenderOptions{Width: 1200, Height: 450}

// MaxRenderOptions is the largest image RenderPNG will draw. Larger sizes
// are clamped.
var MaxRenderOptions = RenderOptions{Width: 4000, Height: 2000}

// Fits reports whether o is within MaxRenderOptions.
func (o RenderOptions) Fits() bool {
	return o.Width <= MaxRenderOptions.Width && o.Height <= MaxRenderOptions.Height
}

var namedColors = map[string]string{
	Blue:    "0000ff",
	Red:     "ff0000",
	Green:   "008000",
	"black": "000000",
	"white": "ffffff",
}

func parseColor(s string) drawing.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}
	return drawing.ColorFromHex(strings.TrimPrefix(s, "#"))
}

// RenderPNG draws fig as a PNG. Figures with several x axes are drawn one
// pane at a time and placed side by side.
func RenderPNG(w io.Writer, fig Figure, opts RenderOptions) error {
	if fig.Empty() {
		return ErrEmptyFigure
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultRenderOptions
	}
	opts.Width = min(opts.Width, MaxRenderOptions.Width)
	opts.Height = min(opts.Height, MaxRenderOptions.Height)

	panes := splitPanes(fig)
	if len(panes) == 1 {
		return renderPane(w, fig, panes[0], fig.TitleText(), opts)
	}

	paneOpts := RenderOptions{Width: opts.Width / len(panes), Height: opts.Height}
	canvas := image.NewRGBA(image.Rect(0, 0, paneOpts.Width*len(panes), opts.Height))
	for i, p := range panes {
		var buf bytes.Buffer
		if err := renderPane(&buf, fig, p, paneTitle(fig, i), paneOpts); err != nil {
			return fmt.Errorf("pane %d: %w", i+1, err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			return fmt.Errorf("decode pane %d: %w", i+1, err)
		}
		r := image.Rect(i*paneOpts.Width, 0, (i+1)*paneOpts.Width, opts.Height)
		draw.Draw(canvas, r, img, img.Bounds().Min, draw.Src)
	}
	return png.Encode(w, canvas)
}

// splitPanes groups traces by x axis in order of first appearance.
func splitPanes(fig Figure) [][]Trace {
	var (
		order []string
		byRef = map[string][]Trace{}
	)
	for _, t := range fig.Data {
		ref := t.XAxis
		if ref == "" {
			ref = "x"
		}
		if _, ok := byRef[ref]; !ok {
			order = append(order, ref)
		}
		byRef[ref] = append(byRef[ref], t)
	}

	panes := make([][]Trace, len(order))
	for i, ref := range order {
		panes[i] = byRef[ref]
	}
	return panes
}

func paneTitle(fig Figure, i int) string {
	if i < len(fig.Layout.Annotations) {
		return fig.Layout.Annotations[i].Text
	}
	return ""
}

type paneStyle struct {
	background drawing.Color
	foreground drawing.Color
	titleSize  float64
}

func styleOf(fig Figure) paneStyle {
	ps := paneStyle{
		background: parseColor(fig.Layout.PaperBGColor),
		foreground: parseColor(fig.Layout.Font.Color),
		titleSize:  18,
	}
	if fig.Layout.Title != nil && fig.Layout.Title.Font.Size > 0 {
		ps.titleSize = float64(fig.Layout.Title.Font.Size)
	}
	return ps
}

func renderPane(w io.Writer, fig Figure, traces []Trace, title string, opts RenderOptions) error {
	ps := styleOf(fig)
	for _, t := range traces {
		if t.Type == "bar" {
			return renderBars(w, t, title, ps, opts)
		}
	}

	series := make([]gochart.Series, 0, len(traces))
	timeAxis := false
	for _, t := range traces {
		s, isTime, err := lineSeries(t)
		if err != nil {
			return err
		}
		timeAxis = timeAxis || isTime
		series = append(series, s)
	}

	axisStyle := gochart.Style{FontColor: ps.foreground, StrokeColor: ps.foreground}
	c := gochart.Chart{
		Title:      title,
		TitleStyle: gochart.Style{FontColor: ps.foreground, FontSize: ps.titleSize},
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{FillColor: ps.background, Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		Canvas:     gochart.Style{FillColor: ps.background},
		XAxis:      gochart.XAxis{Style: axisStyle},
		YAxis:      gochart.YAxis{Style: axisStyle},
		Series:     series,
	}
	if timeAxis {
		c.XAxis.ValueFormatter = gochart.TimeDateValueFormatter
	}
	c.XAxis.Range, c.YAxis.Range = flatRanges(series)
	return c.Render(gochart.PNG, w)
}

// flatRanges returns explicit ranges for any axis whose values are all the
// same, which go-chart refuses to scale. A nil range leaves the axis to
// go-chart.
func flatRanges(series []gochart.Series) (x, y gochart.Range) {
	first := true
	var minX, maxX, minY, maxY float64
	for _, s := range series {
		vp, ok := s.(gochart.ValuesProvider)
		if !ok {
			continue
		}
		for i := 0; i < vp.Len(); i++ {
			xv, yv := vp.GetValues(i)
			if first {
				minX, maxX, minY, maxY = xv, xv, yv, yv
				first = false
				continue
			}
			minX, maxX = min(minX, xv), max(maxX, xv)
			minY, maxY = min(minY, yv), max(maxY, yv)
		}
	}
	if first {
		return nil, nil
	}
	if minX == maxX {
		x = &gochart.ContinuousRange{Min: minX - pad(minX), Max: maxX + pad(maxX)}
	}
	if minY == maxY {
		y = &gochart.ContinuousRange{Min: minY - pad(minY), Max: maxY + pad(maxY)}
	}
	return x, y
}

func pad(v float64) float64 {
	if v == 0 {
		return 1
	}
	if v < 0 {
		v = -v
	}
	return v * 0.01
}

func lineSeries(t Trace) (gochart.Series, bool, error) {
	style := gochart.Style{StrokeColor: parseColor(lineColor(t)), StrokeWidth: 2}

	if len(t.X) > 0 {
		if _, ok := t.X[0].(string); ok {
			xs := make([]time.Time, len(t.X))
			for i, v := range t.X {
				s, _ := v.(string)
				d, err := market.ParseDate(s)
				if err != nil {
					return nil, false, fmt.Errorf("trace %s: %w", t.Name, err)
				}
				xs[i] = d
			}
			return gochart.TimeSeries{Name: t.Name, Style: style, XValues: xs, YValues: t.Y}, true, nil
		}
	}

	xs := make([]float64, len(t.X))
	for i, v := range t.X {
		f, ok := toFloat(v)
		if !ok {
			return nil, false, fmt.Errorf("trace %s: x value %v is not numeric", t.Name, v)
		}
		xs[i] = f
	}
	return gochart.ContinuousSeries{Name: t.Name, Style: style, XValues: xs, YValues: t.Y}, false, nil
}

func renderBars(w io.Writer, t Trace, title string, ps paneStyle, opts RenderOptions) error {
	fill := ps.foreground
	if t.Marker != nil {
		fill = parseColor(t.Marker.Color)
	}

	bars := make([]gochart.Value, len(t.Y))
	for i, y := range t.Y {
		label := ""
		if i < len(t.X) {
			label = fmt.Sprint(t.X[i])
		}
		bars[i] = gochart.Value{
			Label: label,
			Value: y,
			Style: gochart.Style{FillColor: fill, StrokeColor: fill},
		}
	}

	axisStyle := gochart.Style{FontColor: ps.foreground, StrokeColor: ps.foreground}
	bc := gochart.BarChart{
		Title:      title,
		TitleStyle: gochart.Style{FontColor: ps.foreground, FontSize: ps.titleSize},
		Width:      opts.Width,
		Height:     opts.Height,
		BarWidth:   opts.Width / (2 * (len(bars) + 1)),
		Background: gochart.Style{FillColor: ps.background, Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		Canvas:     gochart.Style{FillColor: ps.background},
		XAxis:      axisStyle,
		YAxis:      gochart.YAxis{Style: axisStyle},
		Bars:       bars,
	}
	if lo, hi := minMax(t.Y); lo == hi {
		bc.YAxis.Range = &gochart.ContinuousRange{Min: lo - pad(lo), Max: hi + pad(hi)}
	}
	return bc.Render(gochart.PNG, w)
}

func minMax(vs []float64) (lo, hi float64) {
	for i, v := range vs {
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	return lo, hi
}

func lineColor(t Trace) string {
	if t.Line != nil {
		return t.Line.Color
	}
	return Blue
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
