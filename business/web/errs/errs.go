// Package errs maps the errors of the ledger onto the API error responses.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/validate"
)

// Set of machine readable codes returned in an error response.
const (
	CodeNotFound          = "not_found"
	CodeChainEmpty        = "chain_empty"
	CodeInvalidProof      = "invalid_proof"
	CodeStaleHead         = "stale_head"
	CodeInsufficientFunds = "insufficient_funds"
	CodeInvalidInput      = "invalid_input"
	CodeInternal          = "internal"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Code   string            `json:"code"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context. The message of a trusted error
// is safe to show to the client.
type Trusted struct {
	Err    error
	Status int
	Code   string
}

// NewTrusted wraps a provided error with an HTTP status code and error code.
// This function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int, code string) error {
	return &Trusted{Err: err, Status: status, Code: code}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap returns the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}

// =============================================================================

// Classify returns the response and status for the error. Errors the ledger
// doesn't know about are reported as internal with no detail.
func Classify(err error) (Response, int) {
	if te := GetTrusted(err); te != nil {
		resp := Response{Code: te.Code, Error: te.Err.Error()}
		if fe := validate.GetFieldErrors(te.Err); fe != nil {
			resp.Fields = fe.Fields()
		}
		return resp, te.Status
	}

	if fe := validate.GetFieldErrors(err); fe != nil {
		return Response{Code: CodeInvalidInput, Error: "data validation error", Fields: fe.Fields()}, http.StatusBadRequest
	}

	status, code := http.StatusInternalServerError, CodeInternal

	switch {
	case errors.Is(err, database.ErrChainEmpty):
		status, code = http.StatusNotFound, CodeChainEmpty
	case errors.Is(err, database.ErrNotFound):
		status, code = http.StatusNotFound, CodeNotFound
	case errors.Is(err, database.ErrStaleHead):
		status, code = http.StatusConflict, CodeStaleHead
	case errors.Is(err, database.ErrInvalidProof):
		status, code = http.StatusBadRequest, CodeInvalidProof
	case errors.Is(err, database.ErrInsufficientFunds):
		status, code = http.StatusBadRequest, CodeInsufficientFunds
	case errors.Is(err, database.ErrInvalidInput):
		status, code = http.StatusBadRequest, CodeInvalidInput
	}

	if code == CodeInternal {
		return Response{Code: code, Error: http.StatusText(status)}, status
	}

	return Response{Code: code, Error: err.Error()}, status
}
