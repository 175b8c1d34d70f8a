package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"FAASentinel/internal/model"
	"FAASentinel/internal/recorder"
)

// FormatMoney renders amount in the currency's own notation, e.g. "$1,234.50" or "₩1,350,000".
func FormatMoney(amount float64, currency string) string {
	cur := *money.New(0, currency).Currency()
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// FormatEvaluationReport formats one evaluation cycle into a Telegram message.
func FormatEvaluationReport(ev *model.Evaluation) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>FAA Report</b> | %s\n", ev.EvaluatedAt.Format("2006-01-02")))
	if !ev.WindowStart.IsZero() {
		b.WriteString(fmt.Sprintf("Window: %s → %s\n", ev.WindowStart.Format("2006-01-02"), ev.WindowEnd.Format("2006-01-02")))
	}
	b.WriteString(fmt.Sprintf("Scoring: %s (%s correlation)\n\n", ev.Config.Mode, ev.Config.Aggregation))

	// Metrics
	b.WriteString("📈 <b>Metrics:</b>\n<pre>")
	b.WriteString(fmt.Sprintf("%-6s %8s %7s %6s %9s\n", "Ticker", "Mom", "Vol", "Corr", "Score"))
	for _, m := range ev.Metrics {
		b.WriteString(fmt.Sprintf("%-6s %+7.2f%% %6.2f%% %+6.2f %4.2f(%d/%d/%d)\n",
			m.Ticker, m.Momentum*100, m.Volatility*100, m.Correlation, m.WeightedScore,
			m.MomentumRank, m.VolatilityRank, m.CorrelationRank))
	}
	b.WriteString("</pre>\n")

	// Selection
	b.WriteString("💰 <b>Selected:</b>\n")
	for _, s := range ev.Selected {
		if s.IsCash() {
			b.WriteString(fmt.Sprintf("  %d. %s → CASH (momentum %+.2f%%)\n", s.Rank, s.Ticker, s.Metrics.Momentum*100))
			continue
		}
		b.WriteString(fmt.Sprintf("  %d. %s\n", s.Rank, s.Ticker))
	}
	if ev.CashShare > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %.0f%% of the selection is held in cash\n", ev.CashShare))
	}
	return b.String()
}

// FormatAllocationPlan formats a purchase plan into a Telegram message.
func FormatAllocationPlan(plan *model.AllocationPlan) string {
	var b strings.Builder

	b.WriteString("🛒 <b>Purchase Plan</b>\n\n")
	b.WriteString(fmt.Sprintf("Amount: %s\n", FormatMoney(plan.InputAmount, plan.Currency)))
	if plan.ExchangeRate > 0 {
		b.WriteString(fmt.Sprintf("Rate: 1 %s = %s\n", plan.BaseCurrency, FormatMoney(plan.ExchangeRate, plan.Currency)))
		b.WriteString(fmt.Sprintf("Converted: %s\n", FormatMoney(plan.BaseAmount, plan.BaseCurrency)))
	}
	b.WriteString("\n")
	for _, a := range plan.Allocations {
		b.WriteString(fmt.Sprintf("  %s: %.4f sh @ %s = %s (%.1f%%)\n",
			a.Ticker, a.Shares, FormatMoney(a.CurrentPrice, plan.BaseCurrency),
			FormatMoney(a.Amount, plan.BaseCurrency), a.PercentageOfTotal))
	}
	if plan.CashSlots > 0 {
		b.WriteString(fmt.Sprintf("\n%d slot(s) left in cash\n", plan.CashSlots))
	}
	return b.String()
}

// FormatPreferences formats the remembered user choices.
func FormatPreferences(p model.Preferences) string {
	var b strings.Builder
	b.WriteString("⚙️ <b>Preferences</b>\n\n")
	tickers := "(none)"
	if len(p.Tickers) > 0 {
		tickers = strings.Join(p.Tickers, ", ")
	}
	b.WriteString(fmt.Sprintf("Tickers: %s\n", tickers))
	b.WriteString(fmt.Sprintf("Include cash: %v\n", p.IncludeCash))
	if p.Amount > 0 {
		b.WriteString(fmt.Sprintf("Last amount: %s\n", FormatMoney(p.Amount, p.Currency)))
	}
	if p.LastEvalID != "" {
		b.WriteString(fmt.Sprintf("Last evaluation: %s\n", p.LastEvalID))
	}
	if !p.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Updated: %s\n", p.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatHistory formats recent evaluations, newest first.
func FormatHistory(items []recorder.EvaluationSummary) string {
	if len(items) == 0 {
		return "📜 No evaluations recorded yet"
	}
	var b strings.Builder
	b.WriteString("📜 <b>Recent evaluations</b>\n\n")
	for _, s := range items {
		b.WriteString(fmt.Sprintf("%s [%s] %s", s.EvaluatedAt.Format("2006-01-02"), s.Trigger, strings.Join(s.Selected, ", ")))
		if s.CashShare > 0 {
			b.WriteString(fmt.Sprintf(" (cash %.0f%%)", s.CashShare))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatError formats a failed operation, escaping the error text for HTML.
func FormatError(action string, err error) string {
	return fmt.Sprintf("❌ <b>%s failed</b> | %s\n%s",
		html.EscapeString(action), time.Now().Format("2006-01-02 15:04"), html.EscapeString(err.Error()))
}
