package model

import (
	"fmt"
	"sort"
	"strings"
)

// DataErrorKind classifies malformed or insufficient input data.
type DataErrorKind string

const (
	ZeroPrice            DataErrorKind = "ZERO_PRICE"
	InsufficientData     DataErrorKind = "INSUFFICIENT_DATA"
	LengthMismatch       DataErrorKind = "LENGTH_MISMATCH"
	InvalidIndex         DataErrorKind = "INVALID_INDEX"
	InsufficientUniverse DataErrorKind = "INSUFFICIENT_UNIVERSE"
	UnorderedDates       DataErrorKind = "UNORDERED_DATES"
)

// DataError aborts an evaluation cycle.
type DataError struct {
	Kind    DataErrorKind
	Ticker  string
	Message string
}

// NewDataError creates a DataError without a ticker.
func NewDataError(kind DataErrorKind, format string, args ...interface{}) *DataError {
	return &DataError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *DataError) Error() string {
	if e.Ticker != "" {
		return fmt.Sprintf("[DATA:%s] %s: %s", e.Kind, e.Ticker, e.Message)
	}
	return fmt.Sprintf("[DATA:%s] %s", e.Kind, e.Message)
}

// Is matches another DataError of the same kind. A target without a ticker matches any ticker.
func (e *DataError) Is(target error) bool {
	t, ok := target.(*DataError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Ticker == "" || t.Ticker == e.Ticker)
}

// WithTicker returns a copy of e attributed to ticker.
func (e *DataError) WithTicker(ticker string) *DataError {
	c := *e
	c.Ticker = ticker
	return &c
}

// SelectionErrorKind classifies invalid selection requests.
type SelectionErrorKind string

const (
	EmptyUniverse  SelectionErrorKind = "EMPTY_UNIVERSE"
	TopNOutOfRange SelectionErrorKind = "TOP_N_OUT_OF_RANGE"
)

// SelectionError reports an invalid topN or an empty universe.
type SelectionError struct {
	Kind    SelectionErrorKind
	Message string
}

func NewSelectionError(kind SelectionErrorKind, format string, args ...interface{}) *SelectionError {
	return &SelectionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("[SELECTION:%s] %s", e.Kind, e.Message)
}

func (e *SelectionError) Is(target error) bool {
	t, ok := target.(*SelectionError)
	return ok && t.Kind == e.Kind
}

// AllocationErrorKind classifies failed allocation requests.
type AllocationErrorKind string

const (
	NoInvestableAssets AllocationErrorKind = "NO_INVESTABLE_ASSETS"
	MissingPrice       AllocationErrorKind = "MISSING_PRICE"
	InvalidAmount      AllocationErrorKind = "INVALID_AMOUNT"
	InvalidRate        AllocationErrorKind = "INVALID_RATE"
)

// AllocationError fails a whole allocation request; no partial table exists.
type AllocationError struct {
	Kind    AllocationErrorKind
	Tickers []string
	Message string
}

func NewAllocationError(kind AllocationErrorKind, tickers []string, format string, args ...interface{}) *AllocationError {
	return &AllocationError{Kind: kind, Tickers: tickers, Message: fmt.Sprintf(format, args...)}
}

func (e *AllocationError) Error() string {
	if len(e.Tickers) > 0 {
		return fmt.Sprintf("[ALLOCATION:%s] %s: %s", e.Kind, strings.Join(e.Tickers, ", "), e.Message)
	}
	return fmt.Sprintf("[ALLOCATION:%s] %s", e.Kind, e.Message)
}

func (e *AllocationError) Is(target error) bool {
	t, ok := target.(*AllocationError)
	return ok && t.Kind == e.Kind
}

// FetchError lists every ticker whose upstream fetch failed.
type FetchError struct {
	Failures map[string]error
}

// Tickers returns the failed tickers in sorted order.
func (e *FetchError) Tickers() []string {
	out := make([]string, 0, len(e.Failures))
	for t := range e.Failures {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (e *FetchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, t := range e.Tickers() {
		parts = append(parts, fmt.Sprintf("%s (%v)", t, e.Failures[t]))
	}
	return "failed to fetch data for: " + strings.Join(parts, ", ")
}

// Sentinels for errors.Is.
var (
	ErrZeroPrice            = &DataError{Kind: ZeroPrice}
	ErrInsufficientData     = &DataError{Kind: InsufficientData}
	ErrLengthMismatch       = &DataError{Kind: LengthMismatch}
	ErrInvalidIndex         = &DataError{Kind: InvalidIndex}
	ErrInsufficientUniverse = &DataError{Kind: InsufficientUniverse}
	ErrUnorderedDates       = &DataError{Kind: UnorderedDates}

	ErrEmptyUniverse  = &SelectionError{Kind: EmptyUniverse}
	ErrTopNOutOfRange = &SelectionError{Kind: TopNOutOfRange}

	ErrNoInvestableAssets = &AllocationError{Kind: NoInvestableAssets}
	ErrMissingPrice       = &AllocationError{Kind: MissingPrice}
	ErrInvalidAmount      = &AllocationError{Kind: InvalidAmount}
	ErrInvalidRate        = &AllocationError{Kind: InvalidRate}
)
