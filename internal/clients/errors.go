package clients

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrAuthExpired is returned when an authenticated admin call answers 401.
var ErrAuthExpired = errors.New("admin session expired")

// TransportError means the backend could not be reached or its reply could
// not be read.
type TransportError struct {
	Service string
	Op      string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport: %v", e.Service, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerRejection is a readable reply that refused the request.
type ServerRejection struct {
	Service    string
	Op         string
	StatusCode int
	Message    string
}

func (e *ServerRejection) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: rejected (%d)", e.Service, e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: rejected (%d): %s", e.Service, e.Op, e.StatusCode, e.Message)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsRejection(err error) bool {
	var sr *ServerRejection
	return errors.As(err, &sr)
}

func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}
