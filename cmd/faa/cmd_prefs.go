package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"FAASentinel/internal/model"
	"FAASentinel/internal/notifier"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change remembered preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		printPreferences(cmd.OutOrStdout(), a.Service.Preferences())
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Remember a universe for future evaluations",
	Example: `  faa prefs set --tickers SPY,EFA,EEM,TLT,IEF,VNQ,GLD
  faa prefs set --tickers SPY,EFA,EEM,TLT,IEF,VNQ,GLD --include-cash`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Service.SetUniverse(parseTickers(prefsTickers), prefsIncludeCash); err != nil {
			return err
		}
		printPreferences(cmd.OutOrStdout(), a.Service.Preferences())
		return nil
	},
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget remembered tickers and amount",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		a.Service.ResetPreferences()
		printPreferences(cmd.OutOrStdout(), a.Service.Preferences())
		return nil
	},
}

var prefsCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List suggested ETFs by asset class",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printCatalog(cmd.OutOrStdout())
	},
}

var prefsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded evaluations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		items, err := a.Service.History(historyLimit)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tTRIGGER\tSELECTED\tCASH\tID")
		for _, s := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%s\n", s.EvaluatedAt.Format("2006-01-02 15:04"),
				s.Trigger, strings.Join(s.Selected, ","), s.CashShare, s.ID)
		}
		return tw.Flush()
	},
}

var (
	prefsTickers     string
	prefsIncludeCash bool
	historyLimit     int
)

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsSetCmd, prefsResetCmd, prefsCatalogCmd, prefsHistoryCmd)

	prefsSetCmd.Flags().StringVar(&prefsTickers, "tickers", "", "Comma-separated universe")
	prefsSetCmd.Flags().BoolVar(&prefsIncludeCash, "include-cash", false, "Add the riskless cash candidate")
	prefsSetCmd.MarkFlagRequired("tickers")
	prefsHistoryCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of evaluations to list")
}

func printPreferences(w io.Writer, p model.Preferences) {
	tickers := "(none)"
	if len(p.Tickers) > 0 {
		tickers = strings.Join(p.Tickers, ", ")
	}
	fmt.Fprintf(w, "Tickers:      %s\n", tickers)
	fmt.Fprintf(w, "Include cash: %v\n", p.IncludeCash)
	fmt.Fprintf(w, "Currency:     %s\n", p.Currency)
	if p.Amount > 0 {
		fmt.Fprintf(w, "Last amount:  %s\n", notifier.FormatMoney(p.Amount, p.Currency))
	}
	if !p.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated:      %s\n", p.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func printCatalog(w io.Writer) {
	for _, g := range model.Catalog {
		fmt.Fprintf(w, "%s\n", g.Label)
		for _, c := range g.Categories {
			fmt.Fprintf(w, "  %s\n", c.Label)
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			for _, e := range c.ETFs {
				fmt.Fprintf(tw, "    %s\t%s\t%s\n", e.Ticker, e.Name, e.Description)
			}
			tw.Flush()
		}
	}
}
