package cmd

import (
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/hawktail/internal/seeder"
)

var (
	seedAddr        string
	seedCount       int
	seedInterval    time.Duration
	seedConnections int
	seedFormat      string
	seedSeed        int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Stream fake records to a running server",
	Long: `Generates realistic fake log records and sends them to a capture
server over the framed TCP protocol, for load testing and demos.

Examples:
  # 100 records to the local server
  hawktail seed

  # sustained stream over five connections
  hawktail seed --connections 5 --count 10000 --interval 10ms

  # exercise the CBOR payload codec
  hawktail seed --format cbor`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedAddr, "addr", "", "server address (default: configured listen address)")
	seedCmd.Flags().IntVar(&seedCount, "count", 100, "records to send per connection")
	seedCmd.Flags().DurationVar(&seedInterval, "interval", 0, "pause between records")
	seedCmd.Flags().IntVar(&seedConnections, "connections", 1, "concurrent connections")
	seedCmd.Flags().StringVar(&seedFormat, "format", "json", "payload format: json or cbor")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 0, "random seed (0 = from clock)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	addr := seedAddr
	if addr == "" {
		addr = cfg.Listen.Addr()
	}
	runner, err := seeder.NewRunner(seeder.Config{
		Addr:        addr,
		Count:       seedCount,
		Interval:    seedInterval,
		Connections: seedConnections,
		Format:      seedFormat,
		Seed:        seedSeed,
		Logger:      slog.Default(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return runner.Run(ctx)
}
