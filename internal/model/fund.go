package model

import "time"

// PurchaseAllocation is the buy instruction for one investable asset.
type PurchaseAllocation struct {
	Ticker            string  `json:"ticker"`
	CurrentPrice      float64 `json:"current_price"`
	Shares            float64 `json:"shares"`
	Amount            float64 `json:"amount"`
	PercentageOfTotal float64 `json:"percentage_of_total"`
}

// AllocationPlan is the output of one allocation request.
type AllocationPlan struct {
	Currency     string               `json:"currency"`      // currency of InputAmount
	BaseCurrency string               `json:"base_currency"` // currency of prices and amounts
	InputAmount  float64              `json:"input_amount"`
	ExchangeRate float64              `json:"exchange_rate,omitempty"`
	BaseAmount   float64              `json:"base_amount"`
	Allocations  []PurchaseAllocation `json:"allocations"`
	CashSlots    int                  `json:"cash_slots"`
	PlannedAt    time.Time            `json:"planned_at"`
}

// Preferences are the user choices remembered between runs.
type Preferences struct {
	Tickers     []string  `json:"tickers"`
	IncludeCash bool      `json:"include_cash"`
	Currency    string    `json:"currency"`
	Amount      float64   `json:"amount"`
	LastEvalID  string    `json:"last_eval_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}
