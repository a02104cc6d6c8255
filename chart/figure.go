// Package chart builds the dashboard's charts. A Figure is
// shaped like a plotly figure so the page can hand it straight to
// Plotly.react, and RenderPNG can draw the same Figure server side.
package chart

// Figure is a complete chart: the traces and their layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one plotted series.
type Trace struct {
	Type   string     `json:"type"`
	Mode   string     `json:"mode,omitempty"`
	Name   string     `json:"name,omitempty"`
	X      []any      `json:"x"`
	Y      []float64  `json:"y"`
	XAxis  string     `json:"xaxis,omitempty"`
	YAxis  string     `json:"yaxis,omitempty"`
	Line   *LineStyle `json:"line,omitempty"`
	Marker *Marker    `json:"marker,omitempty"`
}

type LineStyle struct {
	Color string `json:"color"`
}

type Marker struct {
	Color string `json:"color"`
}

type Font struct {
	Color string `json:"color,omitempty"`
	Size  int    `json:"size,omitempty"`
}

type Title struct {
	Text string `json:"text,omitempty"`
	Font Font   `json:"font"`
}

// Axis is a plotly axis object. Domain and Anchor are only set on subplot
// figures.
type Axis struct {
	Title    *Title    `json:"title,omitempty"`
	ShowGrid bool      `json:"showgrid"`
	Color    string    `json:"color,omitempty"`
	Domain   []float64 `json:"domain,omitempty"`
	Anchor   string    `json:"anchor,omitempty"`
}

// Annotation is free text placed on the paper, used for subplot titles.
type Annotation struct {
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	XAnchor   string  `json:"xanchor"`
	YAnchor   string  `json:"yanchor"`
	ShowArrow bool    `json:"showarrow"`
	Font      Font    `json:"font"`
}

type Layout struct {
	Title        *Title       `json:"title,omitempty"`
	PlotBGColor  string       `json:"plot_bgcolor,omitempty"`
	PaperBGColor string       `json:"paper_bgcolor,omitempty"`
	Font         Font         `json:"font"`
	XAxis        *Axis        `json:"xaxis,omitempty"`
	YAxis        *Axis        `json:"yaxis,omitempty"`
	XAxis2       *Axis        `json:"xaxis2,omitempty"`
	YAxis2       *Axis        `json:"yaxis2,omitempty"`
	XAxis3       *Axis        `json:"xaxis3,omitempty"`
	YAxis3       *Axis        `json:"yaxis3,omitempty"`
	Annotations  []Annotation `json:"annotations,omitempty"`
	BarGap       float64      `json:"bargap,omitempty"`
}

// axes returns every axis present on the layout.
func (l *Layout) axes() []*Axis {
	var out []*Axis
	for _, a := range []*Axis{l.XAxis, l.YAxis, l.XAxis2, l.YAxis2, l.XAxis3, l.YAxis3} {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// Empty reports whether the figure has nothing to draw.
func (f Figure) Empty() bool {
	for _, t := range f.Data {
		if len(t.Y) > 0 {
			return false
		}
	}
	return true
}

// TitleText returns the figure title or "".
func (f Figure) TitleText() string {
	if f.Layout.Title == nil {
		return ""
	}
	return f.Layout.Title.Text
}

func newFigure() Figure {
	return Figure{
		Data: []Trace{},
		Layout: Layout{
			XAxis: &Axis{},
			YAxis: &Axis{},
		},
	}
}
