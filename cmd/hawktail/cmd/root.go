package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/hawktail/internal/config"
	"github.com/telhawk-systems/hawktail/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hawktail",
	Short: "Headless log capture server",
	Long: `hawktail captures framed log records over TCP into in-memory,
searchable stores and snapshots them to disk.

Point logging clients at the listen port, filter and search the
captured records, and save or inspect snapshots from the command
line.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.hawktail/config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
	logging.SetDefault(logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format))
}
