package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"FAASentinel/internal/model"
	"FAASentinel/internal/service"
)

// Problem types returned in the "type" field.
const (
	TypeValidation   = "/errors/validation"
	TypeData         = "/errors/data"
	TypeSelection    = "/errors/selection"
	TypeAllocation   = "/errors/allocation"
	TypeNoEvaluation = "/errors/no-evaluation"
	TypeUpstream     = "/errors/upstream"
	TypeTimeout      = "/errors/timeout"
	TypeInternal     = "/errors/internal"
)

// Problem is an RFC 7807 error body.
type Problem struct {
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	Status   int      `json:"status"`
	Detail   string   `json:"detail,omitempty"`
	Instance string   `json:"instance,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	Tickers  []string `json:"tickers,omitempty"`
}

// Render implements render.Renderer.
func (p *Problem) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, p.Status)
	return nil
}

// toProblem maps an error onto its HTTP status and problem type.
func toProblem(err error, path string) *Problem {
	p := &Problem{Detail: err.Error(), Instance: path}

	var (
		dataErr  *model.DataError
		selErr   *model.SelectionError
		allocErr *model.AllocationError
		fetchErr *model.FetchError
		valErrs  validator.ValidationErrors
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		p.Status, p.Type, p.Title = http.StatusGatewayTimeout, TypeTimeout, "Request Timeout"
	case errors.As(err, &valErrs) || errors.Is(err, service.ErrInvalidRequest):
		p.Status, p.Type, p.Title = http.StatusBadRequest, TypeValidation, "Validation Failed"
	case errors.Is(err, service.ErrNoEvaluation):
		p.Status, p.Type, p.Title = http.StatusConflict, TypeNoEvaluation, "No Evaluation"
	case errors.As(err, &dataErr):
		p.Status, p.Type, p.Title = http.StatusUnprocessableEntity, TypeData, "Insufficient Data"
		p.Kind = string(dataErr.Kind)
		if dataErr.Ticker != "" {
			p.Tickers = []string{dataErr.Ticker}
		}
	case errors.As(err, &selErr):
		p.Status, p.Type, p.Title = http.StatusUnprocessableEntity, TypeSelection, "Selection Failed"
		p.Kind = string(selErr.Kind)
	case errors.As(err, &allocErr):
		p.Status, p.Type, p.Title = http.StatusUnprocessableEntity, TypeAllocation, "Allocation Failed"
		p.Kind = string(allocErr.Kind)
		p.Tickers = allocErr.Tickers
	case errors.As(err, &fetchErr):
		p.Status, p.Type, p.Title = http.StatusBadGateway, TypeUpstream, "Market Data Unavailable"
		p.Tickers = fetchErr.Tickers()
	default:
		p.Status, p.Type, p.Title = http.StatusInternalServerError, TypeInternal, "Internal Server Error"
	}
	return p
}
