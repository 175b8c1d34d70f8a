package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"FAASentinel/internal/app"
	"FAASentinel/internal/config"
)

var (
	configPath string
	verbose    bool
)

// rootCmd is the base command for the FAA CLI
var rootCmd = &cobra.Command{
	Use:   "faa",
	Short: "Flexible Asset Allocation evaluator",
	Long: `faa ranks a universe of ETFs by momentum, volatility and correlation,
picks the top N, sends falling picks to cash and turns the selection into
an equal-weight purchase plan.

Examples:
  faa evaluate --tickers SPY,EFA,EEM,TLT,IEF,VNQ,GLD
  faa allocate --amount 1000000 --currency KRW
  faa prefs catalog
  faa serve --addr :8080`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		if !verbose {
			log.SetOutput(io.Discard)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $CONFIG_PATH or configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show log output on stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadApp reads and validates configuration and wires the service.
func loadApp() (*app.App, error) {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return app.New(cfg)
}

// parseTickers splits "spy, efa,EEM" into upper-case tickers.
func parseTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
