package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"FAASentinel/internal/exporter"
	"FAASentinel/internal/model"
	"FAASentinel/internal/service"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run one evaluation cycle",
	Long: `Fetch the lookback window for every ticker, compute momentum, volatility
and correlation, rank the universe and print the selection.

Without --tickers the remembered universe is used.

Examples:
  faa evaluate --tickers SPY,EFA,EEM,TLT,IEF,VNQ,GLD --include-cash
  faa evaluate --top-n 4 --json
  faa evaluate --xlsx faa.xlsx`,
	RunE: runEvaluate,
}

var (
	evalTickers     string
	evalIncludeCash bool
	evalTopN        int
	evalJSON        bool
	evalXLSX        string
)

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evalTickers, "tickers", "", "Comma-separated universe (default: remembered)")
	evaluateCmd.Flags().BoolVar(&evalIncludeCash, "include-cash", false, "Add the riskless cash candidate to the universe")
	evaluateCmd.Flags().IntVar(&evalTopN, "top-n", 0, "Number of assets to select (default from config)")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "Print the evaluation as JSON")
	evaluateCmd.Flags().StringVar(&evalXLSX, "xlsx", "", "Also write the evaluation to this XLSX file")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	req := service.EvaluateRequest{
		Tickers: parseTickers(evalTickers),
		TopN:    evalTopN,
		Trigger: model.TriggerCLI,
	}
	if cmd.Flags().Changed("include-cash") {
		req.IncludeCash = &evalIncludeCash
	}
	ev, err := a.Service.Evaluate(ctx, req)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	if evalXLSX != "" {
		if err := exporter.Save(evalXLSX, ev, nil); err != nil {
			return err
		}
	}
	out := cmd.OutOrStdout()
	if evalJSON {
		return writeJSON(out, ev)
	}
	printEvaluation(out, ev)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEvaluation(w io.Writer, ev *model.Evaluation) {
	fmt.Fprintf(w, "Evaluation %s (%s)\n", ev.ID, ev.EvaluatedAt.Format("2006-01-02 15:04"))
	if !ev.WindowStart.IsZero() {
		fmt.Fprintf(w, "Window %s - %s\n", ev.WindowStart.Format("2006-01-02"), ev.WindowEnd.Format("2006-01-02"))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TICKER\tMOMENTUM\tVOLATILITY\tCORRELATION\tRANKS\tSCORE\t")
	for _, m := range ev.Metrics {
		fmt.Fprintf(tw, "%s\t%+.2f%%\t%.2f%%\t%+.3f\t%d/%d/%d\t%.2f\t\n",
			m.Ticker, m.Momentum*100, m.Volatility*100, m.Correlation,
			m.MomentumRank, m.VolatilityRank, m.CorrelationRank, m.WeightedScore)
	}
	tw.Flush()

	fmt.Fprintln(w, "\nSelected:")
	for _, s := range ev.Selected {
		if s.IsCash() {
			fmt.Fprintf(w, "  %d. %s -> CASH (momentum %+.2f%%)\n", s.Rank, s.Ticker, s.Metrics.Momentum*100)
			continue
		}
		fmt.Fprintf(w, "  %d. %s\n", s.Rank, s.Ticker)
	}
	if ev.CashShare > 0 {
		fmt.Fprintf(w, "\nCash share: %.0f%%\n", ev.CashShare)
	}
}
