package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockdash/chart"
)

var top5Cmd = &cobra.Command{
	Use:   "top5",
	Short: "Print the five dates with the highest or lowest price",
	Long: `Rank the price file by High (descending) or Low (ascending) and print
the first five rows.

Example:
  stockdash top5 --direction Low --data NFLX.csv`,
	RunE: runTop5,
}

var top5Direction string

func init() {
	rootCmd.AddCommand(top5Cmd)

	top5Cmd.Flags().StringVar(&top5Direction, "direction", string(chart.Highest), "High or Low")
}

func runTop5(cmd *cobra.Command, args []string) error {
	d := chart.Direction(top5Direction)
	if !d.Valid() {
		return fmt.Errorf("unknown direction %q (supported: High, Low)", top5Direction)
	}

	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	table, err := loadTable(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Top %d Dates with %s Stock Price (%s)\n\n", chart.TopN, d.Word(), d)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Date\tOpen\tHigh\tLow\tClose\tVolume")
	for _, r := range chart.Rank(table, d, chart.TopN) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			r.DateString(), r.Open, r.High, r.Low, r.Close, r.Volume)
	}
	return w.Flush()
}
