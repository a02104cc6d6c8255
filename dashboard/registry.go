package dashboard

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/stockdash/chart"
	"github.com/rustyeddy/stockdash/market"
)

// EventChange is the only event the page's dropdowns fire.
const EventChange = "change"

var (
	// ErrUnknownControl is returned by Dispatch when no binding matches the
	// control and event.
	ErrUnknownControl = errors.New("unknown control")
	ErrUnknownOutput  = errors.New("unknown output")
)

// Handler builds the figure for one output from the selected value.
type Handler func(t *market.PriceTable, value string) chart.Figure

// Binding routes a control's event to the handler that refreshes Output.
type Binding struct {
	Control string
	Event   string
	Output  string
	Handler Handler
}

// Update is the new figure for one output.
type Update struct {
	Output string       `json:"output"`
	Figure chart.Figure `json:"figure"`
}

// Registry holds the bindings in registration order. Register everything
// before serving; Dispatch is safe for concurrent use once registration is
// done.
type Registry struct {
	bindings []Binding
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds b. Each output may be driven by one binding only.
func (r *Registry) Register(b Binding) error {
	if b.Control == "" || b.Output == "" || b.Handler == nil {
		return fmt.Errorf("binding needs control, output and handler")
	}
	if b.Event == "" {
		b.Event = EventChange
	}
	for _, have := range r.bindings {
		if have.Output == b.Output {
			return fmt.Errorf("output %s already bound to %s", b.Output, have.Control)
		}
	}
	r.bindings = append(r.bindings, b)
	return nil
}

// Dispatch runs every handler bound to control and event, in registration
// order, and returns their figures.
func (r *Registry) Dispatch(t *market.PriceTable, control, event, value string) ([]Update, error) {
	var out []Update
	for _, b := range r.bindings {
		if b.Control != control || b.Event != event {
			continue
		}
		out = append(out, Update{Output: b.Output, Figure: b.Handler(t, value)})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownControl, control, event)
	}
	return out, nil
}

// Binding returns the binding that drives output.
func (r *Registry) Binding(output string) (Binding, error) {
	for _, b := range r.bindings {
		if b.Output == output {
			return b, nil
		}
	}
	return Binding{}, fmt.Errorf("%w: %s", ErrUnknownOutput, output)
}

// DefaultRegistry wires the three stock charts to the two dropdowns.
func DefaultRegistry(b chart.Builder) *Registry {
	r := NewRegistry()
	for _, bind := range []Binding{
		{Control: MetricControl, Output: LineOutput, Handler: func(t *market.PriceTable, v string) chart.Figure {
			return b.Line(t, chart.Metric(v))
		}},
		{Control: MetricControl, Output: SubplotsOutput, Handler: func(t *market.PriceTable, v string) chart.Figure {
			return b.VolumeSubplots(t, chart.Metric(v))
		}},
		{Control: DirectionControl, Output: TopFiveOutput, Handler: func(t *market.PriceTable, v string) chart.Figure {
			return b.TopFive(t, chart.Direction(v))
		}},
	} {
		if err := r.Register(bind); err != nil {
			panic(err)
		}
	}
	return r
}
