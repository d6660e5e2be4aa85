package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/hawktail/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file with the defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			path = filepath.Join(home, ".hawktail", "config.yaml")
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Default().Write(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "listen:         %s\n", cfg.Listen.Addr())
		fmt.Fprintf(out, "max frame size: %d\n", cfg.Ingest.MaxFrameSize)
		fmt.Fprintf(out, "default format: %s\n", cfg.Ingest.DefaultFormat)
		fmt.Fprintf(out, "queue size:     %d\n", cfg.Ingest.QueueSize)
		fmt.Fprintf(out, "merge:          %v\n", cfg.Ingest.Merge)
		fmt.Fprintf(out, "metrics:        %v (%s)\n", cfg.Metrics.Enabled, cfg.Metrics.Addr)
		fmt.Fprintf(out, "snapshot dir:   %s\n", cfg.Snapshot.Dir)
		fmt.Fprintf(out, "log level:      %s\n", cfg.Logging.Level)
		fmt.Fprintf(out, "log format:     %s\n", cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
