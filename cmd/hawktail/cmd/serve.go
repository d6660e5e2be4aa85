package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/telhawk-systems/hawktail/internal/logging"
	"github.com/telhawk-systems/hawktail/internal/service"
)

var (
	serveMerge       bool
	serveSnapshotDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the capture server",
	Long: `Listens for logging clients and captures their records into
in-memory stores: one per connection, or a single merged store with
--merge. On shutdown, non-empty stores are snapshotted into the
snapshot directory when one is configured.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMerge, "merge", false, "capture all connections into one merged store")
	serveCmd.Flags().StringVar(&serveSnapshotDir, "snapshot-dir", "", "directory for shutdown snapshots (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveMerge {
		cfg.Ingest.Merge = true
	}
	if serveSnapshotDir != "" {
		cfg.Snapshot.Dir = serveSnapshotDir
	}

	mgr := service.NewManager(slog.Default())
	srv, err := mgr.StartServer(cfg)
	if err != nil {
		return err
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			slog.Info("metrics listening", slog.String("addr", cfg.Metrics.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server failed", logging.Err(err))
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down", slog.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	srv.Close()
	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		metricsSrv.Shutdown(ctx)
		cancel()
	}

	if cfg.Snapshot.Dir != "" {
		if err := os.MkdirAll(cfg.Snapshot.Dir, 0o755); err != nil {
			return err
		}
		if err := mgr.SaveAll(cfg.Snapshot.Dir, cfg.Snapshot.Compress); err != nil {
			return err
		}
	}
	return nil
}
