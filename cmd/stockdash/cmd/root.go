package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockdash/config"
	"github.com/rustyeddy/stockdash/internal/logger"
	"github.com/rustyeddy/stockdash/market"
)

var rootCmd = &cobra.Command{
	Use:   "stockdash",
	Short: "An interactive stock price dashboard",
	Long: `Stockdash loads a daily price history (CSV or SQLite) and serves a
dashboard of three charts driven by two dropdowns:

  - the selected metric (Volume, Open, High, Low, Close) over time
  - Volume plotted against day, month and year
  - the five dates with the highest High or lowest Low

Charts can also be rendered to PNG from the command line.`,
	SilenceUsage: true,
}

var (
	cfgFile  string
	dataPath string
	dataName string
	debug    bool
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "d", "", "price file (.csv, .db, .sqlite)")
	rootCmd.PersistentFlags().StringVar(&dataName, "name", "", "name used in chart titles (default: Netflix, or the file base name with --data)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")
}

// settings resolves the configuration: defaults, then the config file, then
// the environment, then any flags given on the command line.
func settings(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Path = dataPath
		if cfg.Data.Name == config.Default().Data.Name {
			cfg.Data.Name = ""
		}
	}
	if flags.Changed("name") {
		cfg.Data.Name = dataName
	}
	if flags.Changed("debug") {
		cfg.Server.Debug = debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadTable(cfg *config.Config) (*market.PriceTable, error) {
	t, err := market.Load(cfg.Data.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Data.Name != "" {
		t = t.WithName(cfg.Data.Name)
	}
	return t, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(cfg.Log.Level, cfg.Server.Debug)
}
