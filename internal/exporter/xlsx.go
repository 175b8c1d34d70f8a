// Package exporter writes evaluations and purchase plans as XLSX workbooks.
package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"FAASentinel/internal/model"
)

// Sheet names.
const (
	SheetSummary     = "Summary"
	SheetMetrics     = "Metrics"
	SheetCorrelation = "Correlation"
	SheetSelection   = "Selection"
	SheetAllocation  = "Allocation"
)

// Build creates a workbook for ev. plan is optional.
func Build(ev *model.Evaluation, plan *model.AllocationPlan) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create style: %w", err)
	}
	w := &sheetWriter{f: f, header: header}

	w.summary(ev)
	w.metrics(ev)
	w.correlation(ev.Matrix)
	w.selection(ev.Selected)
	if plan != nil {
		w.allocation(plan)
	}
	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	return f, nil
}

// Write streams the workbook for ev to out.
func Write(out io.Writer, ev *model.Evaluation, plan *model.AllocationPlan) error {
	f, err := Build(ev, plan)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Save writes the workbook for ev to path.
func Save(path string, ev *model.Evaluation, plan *model.AllocationPlan) error {
	f, err := Build(ev, plan)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// sheetWriter keeps the first error so the sheet builders stay linear.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) sheet(name string) {
	if w.err != nil || name == SheetSummary {
		return
	}
	if _, err := w.f.NewSheet(name); err != nil {
		w.err = fmt.Errorf("create sheet %s: %w", name, err)
	}
}

func (w *sheetWriter) row(sheet string, r int, values ...interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("write %s row %d: %w", sheet, r, err)
	}
}

func (w *sheetWriter) headerRow(sheet string, values ...interface{}) {
	w.row(sheet, 1, values...)
	if w.err != nil {
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(values), 1)
	if err := w.f.SetCellStyle(sheet, "A1", last, w.header); err != nil {
		w.err = fmt.Errorf("style %s header: %w", sheet, err)
	}
}

func (w *sheetWriter) summary(ev *model.Evaluation) {
	rows := [][]interface{}{
		{"Evaluation", ev.ID},
		{"Trigger", string(ev.Trigger)},
		{"Evaluated at", ev.EvaluatedAt.Format("2006-01-02 15:04:05")},
		{"Window", fmt.Sprintf("%s - %s", ev.WindowStart.Format("2006-01-02"), ev.WindowEnd.Format("2006-01-02"))},
		{"Scoring", string(ev.Config.Mode)},
		{"Aggregation", string(ev.Config.Aggregation)},
		{"Top N", ev.Config.TopN},
		{"Cash share %", ev.CashShare},
	}
	for i, r := range rows {
		w.row(SheetSummary, i+1, r...)
	}
}

func (w *sheetWriter) metrics(ev *model.Evaluation) {
	w.sheet(SheetMetrics)
	w.headerRow(SheetMetrics, "Ticker", "Momentum", "Volatility", "Correlation",
		"Momentum rank", "Volatility rank", "Correlation rank", "Score")
	for i, m := range ev.Metrics {
		w.row(SheetMetrics, i+2, m.Ticker, m.Momentum, m.Volatility, m.Correlation,
			m.MomentumRank, m.VolatilityRank, m.CorrelationRank, m.WeightedScore)
	}
}

func (w *sheetWriter) correlation(m model.CorrelationMatrix) {
	w.sheet(SheetCorrelation)
	head := make([]interface{}, 0, len(m.Tickers)+1)
	head = append(head, "")
	for _, t := range m.Tickers {
		head = append(head, t)
	}
	w.headerRow(SheetCorrelation, head...)
	for i, t := range m.Tickers {
		row := make([]interface{}, 0, len(m.Tickers)+1)
		row = append(row, t)
		for j := range m.Tickers {
			row = append(row, m.At(i, j))
		}
		w.row(SheetCorrelation, i+2, row...)
	}
}

func (w *sheetWriter) selection(selected []model.SelectedAsset) {
	w.sheet(SheetSelection)
	w.headerRow(SheetSelection, "Rank", "Ticker", "Allocation", "Momentum", "Score")
	for i, s := range selected {
		w.row(SheetSelection, i+2, s.Rank, s.Ticker, s.Allocation, s.Metrics.Momentum, s.Metrics.WeightedScore)
	}
}

func (w *sheetWriter) allocation(plan *model.AllocationPlan) {
	w.sheet(SheetAllocation)
	w.headerRow(SheetAllocation, "Ticker", "Price", "Shares", "Amount", "% of total")
	r := 2
	for _, a := range plan.Allocations {
		w.row(SheetAllocation, r, a.Ticker, a.CurrentPrice, a.Shares, a.Amount, a.PercentageOfTotal)
		r++
	}
	r++
	w.row(SheetAllocation, r, "Input amount", plan.InputAmount, plan.Currency)
	w.row(SheetAllocation, r+1, "Base amount", plan.BaseAmount, plan.BaseCurrency)
	if plan.ExchangeRate > 0 {
		w.row(SheetAllocation, r+2, "Exchange rate", plan.ExchangeRate)
	}
	w.row(SheetAllocation, r+3, "Cash slots", plan.CashSlots)
}
