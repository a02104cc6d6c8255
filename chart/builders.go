package chart

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/stockdash/market"
)

// TopN is how many rows the ranked bar chart shows.
const TopN = 5

// Builder produces figures in one Theme. Builders keep no state between
// calls, so the same inputs always give the same Figure.
type Builder struct {
	Theme Theme
}

// NewBuilder returns a Builder using th, with empty colors taken from
// DefaultTheme.
func NewBuilder(th Theme) Builder {
	return Builder{Theme: th.withDefaults()}
}

var defaultBuilder = NewBuilder(DefaultTheme)

func Line(t *market.PriceTable, m Metric) Figure {
	return defaultBuilder.Line(t, m)
}

func VolumeSubplots(t *market.PriceTable, m Metric) Figure {
	return defaultBuilder.VolumeSubplots(t, m)
}

func TopFive(t *market.PriceTable, d Direction) Figure {
	return defaultBuilder.TopFive(t, d)
}

// Line plots metric m against Date for every row in table order. An
// unknown metric gives an empty figure.
func (b Builder) Line(t *market.PriceTable, m Metric) Figure {
	fig := newFigure()
	if !m.Valid() {
		b.Theme.apply(&fig, 24)
		return fig
	}

	ys, _ := t.Values(m.Column())
	fig.Data = append(fig.Data, Trace{
		Type: "scatter",
		Mode: "lines",
		Name: string(m),
		X:    dates(t),
		Y:    ys,
		Line: &LineStyle{Color: m.Color()},
	})
	fig.Layout.Title = &Title{Text: fmt.Sprintf("%s %s over Time", t.DisplayName(), m)}
	fig.Layout.XAxis.Title = &Title{Text: string(market.ColDate)}
	fig.Layout.YAxis.Title = &Title{Text: string(m)}
	b.Theme.apply(&fig, 24)
	return fig
}

type pane struct {
	name  string
	color string
	x     func(market.PriceRow) int
}

var volumePanes = []pane{
	{"Day", Blue, func(r market.PriceRow) int { return r.Day }},
	{"Month", Red, func(r market.PriceRow) int { return r.Month }},
	{"Year", Green, func(r market.PriceRow) int { return r.Year }},
}

// subplotSpacing is the horizontal gap between panes as a fraction of the
// figure width.
const subplotSpacing = 0.2 / 3

// VolumeSubplots draws Volume three times side by side, against Day, Month
// and Year. Rows stay in table order; the grouping field only relabels the X
// axis. The metric is accepted so the function fits the metric dropdown's
// handler shape, and is ignored.
func (b Builder) VolumeSubplots(t *market.PriceTable, _ Metric) Figure {
	fig := newFigure()

	n := len(volumePanes)
	width := (1 - subplotSpacing*float64(n-1)) / float64(n)
	rows := t.Rows()
	ys, _ := t.Values(market.ColVolume)

	for i, p := range volumePanes {
		xs := make([]any, len(rows))
		for j, r := range rows {
			xs[j] = p.x(r)
		}

		xref, yref := axisRef("x", i), axisRef("y", i)
		fig.Data = append(fig.Data, Trace{
			Type:  "scatter",
			Mode:  "lines",
			Name:  p.name,
			X:     xs,
			Y:     append([]float64(nil), ys...),
			XAxis: xref,
			YAxis: yref,
			Line:  &LineStyle{Color: p.color},
		})

		lo := float64(i) * (width + subplotSpacing)
		hi := lo + width
		if i == n-1 {
			hi = 1
		}
		x := &Axis{Domain: []float64{lo, hi}, Anchor: yref}
		y := &Axis{Anchor: xref}
		switch i {
		case 0:
			fig.Layout.XAxis, fig.Layout.YAxis = x, y
		case 1:
			fig.Layout.XAxis2, fig.Layout.YAxis2 = x, y
		case 2:
			fig.Layout.XAxis3, fig.Layout.YAxis3 = x, y
		}

		fig.Layout.Annotations = append(fig.Layout.Annotations, Annotation{
			Text:    "Volume by " + p.name,
			X:       (lo + hi) / 2,
			Y:       1,
			XRef:    "paper",
			YRef:    "paper",
			XAnchor: "center",
			YAnchor: "bottom",
			Font:    Font{Size: 16},
		})
	}

	b.Theme.apply(&fig, 18)
	return fig
}

func axisRef(prefix string, i int) string {
	if i == 0 {
		return prefix
	}
	return fmt.Sprintf("%s%d", prefix, i+1)
}

// Rank returns the first n rows after a stable sort on the direction's
// column: High descending for Highest, Low ascending for Lowest. Ties keep
// table order. An unknown direction returns nil and a negative n returns no
// rows.
func Rank(t *market.PriceTable, d Direction, n int) []market.PriceRow {
	if !d.Valid() {
		return nil
	}

	rows := t.Rows()
	col := d.Column()
	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := rows[i].Price(col)
		b, _ := rows[j].Price(col)
		if d == Highest {
			return a.GreaterThan(b)
		}
		return a.LessThan(b)
	})

	if n < 0 {
		n = 0
	}
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// TopFive is a bar chart of Date against the ranked field for the Rank
// rows. An unknown direction gives an empty figure.
func (b Builder) TopFive(t *market.PriceTable, d Direction) Figure {
	fig := newFigure()
	fig.Layout.BarGap = 0.2
	if !d.Valid() {
		b.Theme.apply(&fig, 18)
		return fig
	}

	top := Rank(t, d, TopN)
	xs := make([]any, len(top))
	ys := make([]float64, len(top))
	for i, r := range top {
		xs[i] = r.DateString()
		ys[i], _ = r.Value(d.Column())
	}

	fig.Data = append(fig.Data, Trace{
		Type:   "bar",
		Name:   string(d),
		X:      xs,
		Y:      ys,
		Marker: &Marker{Color: b.Theme.Foreground},
	})
	fig.Layout.Title = &Title{Text: fmt.Sprintf("Top %d Dates with %s Stock Price (%s)", TopN, d.Word(), d)}
	fig.Layout.XAxis.Title = &Title{Text: string(market.ColDate)}
	fig.Layout.YAxis.Title = &Title{Text: string(d)}
	b.Theme.apply(&fig, 18)
	return fig
}

func dates(t *market.PriceTable) []any {
	ds := t.Dates()
	out := make([]any, len(ds))
	for i, d := range ds {
		out[i] = d
	}
	return out
}
