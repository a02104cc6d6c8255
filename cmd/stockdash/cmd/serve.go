package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockdash/dashboard"
	"github.com/rustyeddy/stockdash/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard web server",
	Long: `Load the price file and serve the dashboard until interrupted.

Example:
  stockdash serve --data NFLX.csv --port 8050`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	table, err := loadTable(cfg)
	if err != nil {
		log.Error(err, logger.NewField("path", cfg.Data.Path))
		return err
	}
	log.Info("prices loaded",
		logger.NewField("name", table.Name),
		logger.NewField("rows", table.Len()))

	srv, err := dashboard.New(table, dashboard.Options{
		Addr:  cfg.Server.Addr(),
		Theme: cfg.Theme.Chart(),
	}, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
