package gatesdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/codequesthq/gate/pkg/httpx"
)

// Error codes shared between the service and its clients. The gate reason
// codes surface verbatim so callers can branch on them.
const (
	ErrorCodeInvalidRequest      = "invalid_request"
	ErrorCodeInvalidToken        = "invalid_token"
	ErrorCodeUserNotFound        = "user_not_found"
	ErrorCodeChallengeRequired   = "challenge_required"
	ErrorCodeInvalidCode         = "invalid_or_expired_code"
	ErrorCodeTimeRestricted      = "time_restricted"
	ErrorCodeAlreadyRegistered   = "already_registered"
	ErrorCodeWindowClosed        = "window_closed"
	ErrorCodeInvalidPlan         = "invalid_plan"
	ErrorCodeDeliveryUnavailable = "delivery_unavailable"
	ErrorCodeServerError         = "server_error"
	ErrorCodeServiceUnavailable  = "dependency_unavailable"
)

// GateError is the standard error response shape. It implements the error
// interface and is used both by the server to write responses and by the SDK
// client to represent failures.
type GateError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`

	// Decision carries the gate's verdict when a denial response still has a
	// decision body. Set only on the client side.
	Decision *DecisionResponse `json:"-"`
}

// Error implements the error interface.
func (e *GateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this GateError to an HTTP response writer.
func (e *GateError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	// ErrInvalidRequest is returned when the request is malformed or missing
	// required parameters.
	ErrInvalidRequest = &GateError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidToken is returned when the session token is missing, malformed,
	// tampered with, or expired.
	ErrInvalidToken = &GateError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the session token is invalid or expired",
	}

	// ErrUserNotFound is returned when a verified token names an identity that
	// no longer exists.
	ErrUserNotFound = &GateError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUserNotFound,
		Description: "no identity exists for this credential",
	}

	// ErrServerError is returned for unexpected internal failures.
	ErrServerError = &GateError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "an internal server error occurred",
	}

	// ErrServiceUnavailable is returned when a backing dependency cannot be
	// reached.
	ErrServiceUnavailable = &GateError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeServiceUnavailable,
		Description: "a backing service is unavailable, try again shortly",
	}
)
