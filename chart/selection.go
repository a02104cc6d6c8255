package chart

import "github.com/rustyeddy/stockdash/market"

// Metric selects the column the line chart plots.
type Metric string

const (
	MetricVolume Metric = "Volume"
	MetricOpen   Metric = "Open"
	MetricHigh   Metric = "High"
	MetricLow    Metric = "Low"
	MetricClose  Metric = "Close"
)

// Metrics is the dropdown order.
var Metrics = []Metric{MetricVolume, MetricOpen, MetricHigh, MetricLow, MetricClose}

func (m Metric) Valid() bool {
	for _, v := range Metrics {
		if m == v {
			return true
		}
	}
	return false
}

func (m Metric) Column() market.Column {
	return market.Column(m)
}

// Color is green for High, red for Low and blue for everything else.
func (m Metric) Color() string {
	switch m {
	case MetricHigh:
		return Green
	case MetricLow:
		return Red
	}
	return Blue
}

// Direction selects which extreme the ranked bar chart shows. The value is
// the column ranked on.
type Direction string

const (
	Highest Direction = "High"
	Lowest  Direction = "Low"
)

var Directions = []Direction{Highest, Lowest}

func (d Direction) Valid() bool {
	return d == Highest || d == Lowest
}

func (d Direction) Column() market.Column {
	return market.Column(d)
}

// Word is "Highest" or "Lowest".
func (d Direction) Word() string {
	switch d {
	case Highest:
		return "Highest"
	case Lowest:
		return "Lowest"
	}
	return ""
}
