package domain

import (
	"errors"
	"fmt"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a network-related error that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "connect", "read", "write")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExchangeError is an error body returned by the exchange for a rejected request.
type ExchangeError struct {
	Status  int    // HTTP status code
	Name    string // e.g. "HTTPError", "ValidationError"
	Message string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange error %d %s: %s", e.Status, e.Name, e.Message)
}

// IsRetriable reports true only for rate limiting and exchange overload.
func (e *ExchangeError) IsRetriable() bool {
	return e.Status == 429 || e.Status == 503
}

var (
	// ErrConnectionFailed is returned when websocket connection fails. It's usually retriable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotConnected is returned when writing to a feed that has no live connection.
	ErrNotConnected = errors.New("not connected")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrUnsupportedOrderKind is returned by a transport that cannot place the requested kind.
	ErrUnsupportedOrderKind = errors.New("unsupported order kind")

	// ErrEmptyOrderID is returned when a command carries no client order id.
	ErrEmptyOrderID = errors.New("empty order id")

	// ErrUnknownOrder is returned when cancelling an order the venue does not know.
	ErrUnknownOrder = errors.New("unknown order")

	// ErrMalformedResponse is returned when a venue response cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

