package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockdash/chart"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one chart to a PNG file",
	Long: `Build a chart from the price file and write it as a PNG image.

Charts:
  line      - the selected metric over time (--value Volume|Open|High|Low|Close)
  subplots  - Volume by day, month and year
  top5      - the top five dates (--value High|Low)

Example:
  stockdash render --chart top5 --value Low -o lowest.png --data NFLX.csv`,
	RunE: runRender,
}

var (
	renderChart  string
	renderValue  string
	renderOutput string
	renderWidth  int
	renderHeight int
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&renderChart, "chart", "line", "chart to render (line, subplots, top5)")
	renderCmd.Flags().StringVar(&renderValue, "value", "", "dropdown value (default: the page default)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "chart.png", "output PNG path")
	renderCmd.Flags().IntVar(&renderWidth, "width", chart.DefaultRenderOptions.Width, "image width in pixels")
	renderCmd.Flags().IntVar(&renderHeight, "height", chart.DefaultRenderOptions.Height, "image height in pixels")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	table, err := loadTable(cfg)
	if err != nil {
		return err
	}

	b := chart.NewBuilder(cfg.Theme.Chart())
	var fig chart.Figure
	switch strings.ToLower(renderChart) {
	case "line":
		fig = b.Line(table, chart.Metric(valueOr(renderValue, string(chart.MetricVolume))))
	case "subplots":
		fig = b.VolumeSubplots(table, chart.Metric(valueOr(renderValue, string(chart.MetricVolume))))
	case "top5":
		fig = b.TopFive(table, chart.Direction(valueOr(renderValue, string(chart.Highest))))
	default:
		return fmt.Errorf("unknown chart %q (supported: line, subplots, top5)", renderChart)
	}

	f, err := os.Create(renderOutput)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := chart.RenderPNG(f, fig, chart.RenderOptions{Width: renderWidth, Height: renderHeight}); err != nil {
		f.Close()
		os.Remove(renderOutput)
		return fmt.Errorf("render %s: %w", renderChart, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%s)\n", renderOutput, fig.TitleText())
	return nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
