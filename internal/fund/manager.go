package fund

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"FAASentinel/internal/model"
)

// Manager keeps the user's preferences and the last evaluation, with concurrency safety.
// Preferences are persisted; the last evaluation lives in memory only.
type Manager struct {
	mu       sync.Mutex
	prefs    *model.Preferences
	last     *model.Evaluation
	filePath string
}

// NewManager creates a Manager, loading or initializing preferences from disk.
func NewManager(filePath string, defaults model.Preferences) (*Manager, error) {
	prefs, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	// Initialize if fresh state
	if len(prefs.Tickers) == 0 {
		prefs.Tickers = append([]string(nil), defaults.Tickers...)
		prefs.IncludeCash = defaults.IncludeCash
	}
	if prefs.Currency == "" {
		prefs.Currency = defaults.Currency
	}

	m := &Manager{prefs: prefs, filePath: filePath}
	if err := m.save(); err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}
	return m, nil
}

// Preferences returns a copy of the current preferences.
func (m *Manager) Preferences() model.Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := *m.prefs
	p.Tickers = append([]string(nil), m.prefs.Tickers...)
	return p
}

// SetUniverse remembers the tickers and cash flag of the last requested cycle.
func (m *Manager) SetUniverse(tickers []string, includeCash bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	normalized := make([]string, len(tickers))
	for i, t := range tickers {
		normalized[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	m.prefs.Tickers = normalized
	m.prefs.IncludeCash = includeCash

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save preferences: %v", err)
	}
}

// SetPurchase remembers the last allocation amount and currency.
func (m *Manager) SetPurchase(amount float64, currency string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prefs.Amount = amount
	m.prefs.Currency = strings.ToUpper(currency)

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save preferences: %v", err)
	}
}

// RecordEvaluation keeps ev as the basis for later allocation requests.
func (m *Manager) RecordEvaluation(ev *model.Evaluation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.last = ev
	m.prefs.LastEvalID = ev.ID

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save preferences: %v", err)
	}
}

// LastEvaluation returns the most recent evaluation, or nil if none ran in this process.
func (m *Manager) LastEvaluation() *model.Evaluation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Reset clears remembered tickers, amount and the last evaluation.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	currency := m.prefs.Currency
	m.prefs = &model.Preferences{Currency: currency}
	m.last = nil

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save preferences after reset: %v", err)
	}
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.prefs)
}
