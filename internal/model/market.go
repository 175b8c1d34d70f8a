package model

import "time"

// PricePoint represents a single daily bar. Only Close feeds the FAA metrics.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceHistory holds one instrument's bars ordered by strictly increasing date.
type PriceHistory struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

// Closes returns the close prices in order.
func (h PriceHistory) Closes() []float64 {
	closes := make([]float64, len(h.Points))
	for i, p := range h.Points {
		closes[i] = p.Close
	}
	return closes
}

// Quote is a live price for one ticker.
type Quote struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
}

// ExchangeRate is the number of Quote units for one Base unit.
type ExchangeRate struct {
	Base      string    `json:"base"`
	Quote     string    `json:"quote"`
	Rate      float64   `json:"rate"`
	Timestamp time.Time `json:"timestamp"`
}
