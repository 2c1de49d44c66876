// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
	"github.com/odyssey-erp/nft-registry/internal/shared"
)

// Sentinel errors for the transport layer.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("service unavailable")
)

type problemMapping struct {
	target error
	status int
	title  string
}

var problemMappings = []problemMapping{
	{ledger.ErrUnauthorized, http.StatusForbidden, "Forbidden"},
	{ledger.ErrOperatorNotAllowlisted, http.StatusForbidden, "Operator Not Allowlisted"},
	{ledger.ErrNotFound, http.StatusNotFound, "Not Found"},
	{ledger.ErrIndexOutOfRange, http.StatusNotFound, "Index Out Of Range"},
	{ledger.ErrArithmeticOverflow, http.StatusUnprocessableEntity, "Arithmetic Overflow"},
	{ledger.ErrInvalidArgument, http.StatusBadRequest, "Invalid Argument"},
	{ledger.ErrStaleChangeset, http.StatusConflict, "Conflict"},
	{shared.ErrIdempotencyConflict, http.StatusConflict, "Duplicate Request"},
	{shared.ErrCallerTokenMissing, http.StatusUnauthorized, "Unauthorized"},
	{shared.ErrCallerTokenInvalid, http.StatusUnauthorized, "Unauthorized"},
	{shared.ErrCallerTokenExpired, http.StatusUnauthorized, "Unauthorized"},
	{ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{ErrValidation, http.StatusBadRequest, "Validation Failed"},
	{ErrUnavailable, http.StatusServiceUnavailable, "Service Unavailable"},
}

// StatusFor returns the HTTP status and problem title for err.
func StatusFor(err error) (int, string) {
	for _, m := range problemMappings {
		if errors.Is(err, m.target) {
			return m.status, m.title
		}
	}
	return http.StatusInternalServerError, "Internal Error"
}

// RespondError maps domain errors to HTTP responses using RFC7807. Internal
// errors carry no detail.
func RespondError(w http.ResponseWriter, err error) {
	status, title := StatusFor(err)
	detail := ""
	if status != http.StatusInternalServerError {
		detail = err.Error()
	}
	Problem(w, status, title, detail)
}
