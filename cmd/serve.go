package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/csvcharts/internal/server"
)

var (
	serveAddr    string
	servePreload bool
	serveWorkers int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog datasets as a live chart dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCatalog()
		if err != nil {
			return err
		}
		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		if addr == "" {
			addr = ":8080"
		}
		timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
		srv := server.New(c, server.Options{
			Loader:         newLoader(0),
			Aggregator:     newAggregator(),
			ChartWidth:     cfg.ChartWidth,
			ChartHeight:    cfg.ChartHeight,
			CacheTTL:       time.Duration(cfg.CacheTTLSec) * time.Second,
			LoadTimeout:    timeout,
			AllowedOrigins: cfg.AllowedOrigins,
			Log:            log,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if servePreload {
			go srv.Warm(ctx, serveWorkers)
		}
		log.WithField("datasets", len(c.List())).Info("starting dashboard")
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().BoolVar(&servePreload, "preload", false, "load every catalog dataset at startup")
	serveCmd.Flags().IntVar(&serveWorkers, "preload-workers", 4, "datasets loaded in parallel by --preload")
}
