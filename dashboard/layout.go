// Package dashboard serves the interactive page: a declarative layout of
// dropdowns and graphs, a registry binding control changes to chart
// builders, per-visitor selection state, and the HTTP and WebSocket surface.
package dashboard

import (
	"github.com/rustyeddy/stockdash/chart"
)

// Control and graph ids shared by the layout, the registry and the page.
const (
	MetricControl    = "metric-dropdown"
	DirectionControl = "top-5-dropdown"

	LineOutput     = "line-chart"
	SubplotsOutput = "volume-subplots"
	TopFiveOutput  = "top-5-bar"
)

// ItemKind says how the page draws an Item.
type ItemKind string

const (
	KindHeading  ItemKind = "heading"
	KindDropdown ItemKind = "dropdown"
	KindGraph    ItemKind = "graph"
)

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Item is one element of the page in display order. Text is the heading
// text or the dropdown's label; Value is a dropdown's initial selection.
type Item struct {
	Kind    ItemKind `json:"kind"`
	ID      string   `json:"id,omitempty"`
	Text    string   `json:"text,omitempty"`
	Options []Option `json:"options,omitempty"`
	Value   string   `json:"value,omitempty"`
}

// Layout is the static structure of the page.
type Layout struct {
	Title      string `json:"title"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Items      []Item `json:"items"`
}

// DefaultLayout is the stock dashboard page for a table called name.
func DefaultLayout(name string, th chart.Theme) Layout {
	metrics := make([]Option, len(chart.Metrics))
	for i, m := range chart.Metrics {
		metrics[i] = Option{Label: string(m), Value: string(m)}
	}

	return Layout{
		Title:      name + " Stock Dashboard",
		Background: th.Background,
		Foreground: th.Foreground,
		Items: []Item{
			{Kind: KindDropdown, ID: MetricControl, Text: "Select Stock Metric:", Options: metrics, Value: string(chart.MetricVolume)},
			{Kind: KindGraph, ID: LineOutput},
			{Kind: KindHeading, Text: "Volume Subplots by Day, Month, and Year"},
			{Kind: KindGraph, ID: SubplotsOutput},
			{Kind: KindDropdown, ID: DirectionControl, Text: "Select Top 5 Stock Prices:", Options: []Option{
				{Label: "Top 5 Highest Stock Prices", Value: string(chart.Highest)},
				{Label: "Top 5 Lowest Stock Prices", Value: string(chart.Lowest)},
			}, Value: string(chart.Highest)},
			{Kind: KindHeading, Text: "Top 5 Dates with Highest/Lowest Stock Price"},
			{Kind: KindGraph, ID: TopFiveOutput},
		},
	}
}

// Controls returns the dropdowns in page order.
func (l Layout) Controls() []Item {
	return l.ofKind(KindDropdown)
}

// Graphs returns the graph placeholders in page order.
func (l Layout) Graphs() []Item {
	return l.ofKind(KindGraph)
}

func (l Layout) ofKind(k ItemKind) []Item {
	var out []Item
	for _, it := range l.Items {
		if it.Kind == k {
			out = append(out, it)
		}
	}
	return out
}

// Defaults maps each control id to its initial value.
func (l Layout) Defaults() map[string]string {
	out := make(map[string]string)
	for _, c := range l.Controls() {
		out[c.ID] = c.Value
	}
	return out
}
