package fund

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"FAASentinel/internal/model"
)

// PlanRequest describes one allocation request.
type PlanRequest struct {
	Selected     []model.SelectedAsset
	Prices       map[string]float64 // live price per ticker, in BaseCurrency
	Amount       float64            // investable amount, in Currency
	Currency     string
	BaseCurrency string
	// Rate is the number of Currency units per BaseCurrency unit.
	// Required when Currency differs from BaseCurrency.
	Rate float64
}

// Plan splits the investable amount equally across every selected asset not forced to CASH.
// Shares may be fractional. The request fails as a whole if any price is missing.
func Plan(req PlanRequest) (*model.AllocationPlan, error) {
	if req.Amount <= 0 {
		return nil, model.NewAllocationError(model.InvalidAmount, nil, "amount must be positive, got %v", req.Amount)
	}

	base := decimal.NewFromFloat(req.Amount)
	plan := &model.AllocationPlan{
		Currency:     req.Currency,
		BaseCurrency: req.BaseCurrency,
		InputAmount:  req.Amount,
		PlannedAt:    time.Now(),
	}
	if needsConversion(req.Currency, req.BaseCurrency) {
		if req.Rate <= 0 {
			return nil, model.NewAllocationError(model.InvalidRate, nil,
				"exchange rate %s/%s must be positive, got %v", req.Currency, req.BaseCurrency, req.Rate)
		}
		base = base.Div(decimal.NewFromFloat(req.Rate))
		plan.ExchangeRate = req.Rate
	}
	plan.BaseAmount = base.InexactFloat64()

	investable := make([]model.SelectedAsset, 0, len(req.Selected))
	for _, s := range req.Selected {
		if s.IsCash() {
			plan.CashSlots++
			continue
		}
		investable = append(investable, s)
	}
	if len(investable) == 0 {
		return nil, model.NewAllocationError(model.NoInvestableAssets, nil,
			"all %d selected assets have negative momentum and are allocated to CASH", len(req.Selected))
	}

	var missing []string
	for _, s := range investable {
		if p, ok := req.Prices[s.Allocation]; !ok || p <= 0 {
			missing = append(missing, s.Allocation)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, model.NewAllocationError(model.MissingPrice, missing, "no live price available")
	}

	perAsset := base.Div(decimal.NewFromInt(int64(len(investable))))
	hundred := decimal.NewFromInt(100)
	plan.Allocations = make([]model.PurchaseAllocation, len(investable))
	for i, s := range investable {
		price := decimal.NewFromFloat(req.Prices[s.Allocation])
		plan.Allocations[i] = model.PurchaseAllocation{
			Ticker:            s.Allocation,
			CurrentPrice:      price.InexactFloat64(),
			Shares:            perAsset.Div(price).InexactFloat64(),
			Amount:            perAsset.InexactFloat64(),
			PercentageOfTotal: perAsset.Div(base).Mul(hundred).InexactFloat64(),
		}
	}
	return plan, nil
}

// InvestableTickers returns the tickers that need a live price for Plan.
func InvestableTickers(selected []model.SelectedAsset) []string {
	var out []string
	for _, s := range selected {
		if !s.IsCash() {
			out = append(out, s.Allocation)
		}
	}
	return out
}

func needsConversion(currency, base string) bool {
	return currency != "" && base != "" && !strings.EqualFold(currency, base)
}
