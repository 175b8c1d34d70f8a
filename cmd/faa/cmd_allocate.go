package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"FAASentinel/internal/exporter"
	"FAASentinel/internal/model"
	"FAASentinel/internal/notifier"
	"FAASentinel/internal/service"
)

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Build an equal-weight purchase plan",
	Long: `Split an amount equally across the selected assets at live prices.

With --tickers the given assets are bought as-is. Otherwise an evaluation of
the remembered universe runs first and its non-cash picks are bought.

Examples:
  faa allocate --amount 1000
  faa allocate --amount 1350000 --currency KRW
  faa allocate --tickers SPY,TLT,GLD --amount 3000 --xlsx plan.xlsx`,
	RunE: runAllocate,
}

var (
	allocTickers  string
	allocAmount   float64
	allocCurrency string
	allocJSON     bool
	allocXLSX     string
)

func init() {
	rootCmd.AddCommand(allocateCmd)

	allocateCmd.Flags().StringVar(&allocTickers, "tickers", "", "Comma-separated assets to buy (default: evaluate first)")
	allocateCmd.Flags().Float64Var(&allocAmount, "amount", 0, "Amount to invest (default: remembered amount)")
	allocateCmd.Flags().StringVar(&allocCurrency, "currency", "", "Currency of --amount, e.g. USD or KRW (default: remembered)")
	allocateCmd.Flags().BoolVar(&allocJSON, "json", false, "Print the plan as JSON")
	allocateCmd.Flags().StringVar(&allocXLSX, "xlsx", "", "Also write the evaluation and plan to this XLSX file")
}

func runAllocate(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	prefs := a.Service.Preferences()
	req := service.AllocateRequest{
		Tickers:  parseTickers(allocTickers),
		Amount:   allocAmount,
		Currency: allocCurrency,
	}
	if !cmd.Flags().Changed("amount") {
		req.Amount = prefs.Amount
	}
	if req.Currency == "" {
		req.Currency = prefs.Currency
	}

	var ev *model.Evaluation
	if len(req.Tickers) == 0 {
		ev, err = a.Service.Evaluate(ctx, service.EvaluateRequest{Trigger: model.TriggerCLI})
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}
		req.EvaluationID = ev.ID
	}

	plan, err := a.Service.Allocate(ctx, req)
	if err != nil {
		return fmt.Errorf("allocate: %w", err)
	}

	if allocXLSX != "" && ev != nil {
		if err := exporter.Save(allocXLSX, ev, plan); err != nil {
			return err
		}
	}
	out := cmd.OutOrStdout()
	if allocJSON {
		return writeJSON(out, plan)
	}
	if ev != nil {
		printEvaluation(out, ev)
		fmt.Fprintln(out)
	}
	printPlan(out, plan)
	return nil
}

func printPlan(w io.Writer, plan *model.AllocationPlan) {
	fmt.Fprintf(w, "Amount: %s\n", notifier.FormatMoney(plan.InputAmount, plan.Currency))
	if plan.ExchangeRate > 0 {
		fmt.Fprintf(w, "Rate: 1 %s = %s\n", plan.BaseCurrency, notifier.FormatMoney(plan.ExchangeRate, plan.Currency))
		fmt.Fprintf(w, "Converted: %s\n", notifier.FormatMoney(plan.BaseAmount, plan.BaseCurrency))
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TICKER\tPRICE\tSHARES\tAMOUNT\tSHARE\t")
	for _, a := range plan.Allocations {
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%s\t%.1f%%\t\n", a.Ticker,
			notifier.FormatMoney(a.CurrentPrice, plan.BaseCurrency), a.Shares,
			notifier.FormatMoney(a.Amount, plan.BaseCurrency), a.PercentageOfTotal)
	}
	tw.Flush()
	if plan.CashSlots > 0 {
		fmt.Fprintf(w, "\n%d slot(s) left in cash\n", plan.CashSlots)
	}
}
