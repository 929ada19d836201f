package hybridchat

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/hybridchat/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrMissingQuery  = domain.ErrMissingQuery
	ErrEmptyResponse = domain.ErrEmptyResponse
	ErrUnknownPeriod = domain.ErrUnknownPeriod
)

// Transport-level sentinels for responses that carry no domain meaning.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrServer       = errors.New("server error")
)

// APIError is a non-2xx reply of the service.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hybridchat: %s: %d %s", e.Op, e.StatusCode, e.Message)
}

// Unwrap maps the reply onto a sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusBadRequest && e.Op == opChat:
		return ErrMissingQuery
	case e.StatusCode == http.StatusBadRequest && e.Op == opUsage:
		return ErrUnknownPeriod
	case e.Op == opChat && e.Message == msgEmptyResponse:
		return ErrEmptyResponse
	case e.StatusCode >= http.StatusInternalServerError:
		return ErrServer
	default:
		return nil
	}
}
