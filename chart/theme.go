package chart

const (
	Black = "#000000"
	// Accent is the brand red used for text, axes and bars.
	Accent = "#E50914"

	Blue  = "blue"
	Red   = "red"
	Green = "green"
)

// Theme is the cosmetic configuration shared by every builder.
type Theme struct {
	Background string `json:"background" yaml:"background"`
	Foreground string `json:"foreground" yaml:"foreground"`
	ShowGrid   bool   `json:"show_grid" yaml:"show_grid"`
}

// DefaultTheme is black background, accent foreground, no gridlines.
var DefaultTheme = Theme{
	Background: Black,
	Foreground: Accent,
}

func (th Theme) withDefaults() Theme {
	if th.Background == "" {
		th.Background = DefaultTheme.Background
	}
	if th.Foreground == "" {
		th.Foreground = DefaultTheme.Foreground
	}
	return th
}

// apply colors the backgrounds, fonts and axes of f. titleSize sets the
// title font size whether or not the figure has a title text.
func (th Theme) apply(f *Figure, titleSize int) {
	th = th.withDefaults()

	l := &f.Layout
	l.PlotBGColor = th.Background
	l.PaperBGColor = th.Background
	l.Font = Font{Color: th.Foreground}

	if l.Title == nil {
		l.Title = &Title{}
	}
	l.Title.Font = Font{Color: th.Foreground, Size: titleSize}

	for _, a := range l.axes() {
		a.ShowGrid = th.ShowGrid
		a.Color = th.Foreground
	}
	for i := range l.Annotations {
		l.Annotations[i].Font.Color = th.Foreground
	}
}
