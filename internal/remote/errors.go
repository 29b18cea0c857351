package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind is the closed classification of everything that can go wrong when
// talking to the remote telemetry API. The breaker and the recovery
// orchestrator switch on it; nothing here is treated as fatal.
type ErrorKind string

const (
	KindNetwork         ErrorKind = "network"
	KindAuth            ErrorKind = "auth"
	KindTimeout         ErrorKind = "timeout"
	KindInvalidResponse ErrorKind = "invalid_response"
	KindCircuitOpen     ErrorKind = "circuit_open"
	KindUnknown         ErrorKind = "unknown"
)

// kinder lets error types outside this package (the breaker's short-circuit
// error) participate in classification without an import cycle.
type kinder interface {
	Kind() ErrorKind
}

// NetworkError covers transport-level failures and remote-side "network busy"
// advisories. Transient; a plain retry is appropriate.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error   { return e.Err }
func (e *NetworkError) Kind() ErrorKind { return KindNetwork }

// AuthError means the session credentials were rejected. Recovery must run a
// full reauthentication stage, not just retry the call.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error   { return e.Err }
func (e *AuthError) Kind() ErrorKind { return KindAuth }

// TimeoutError covers deadline and cancellation outcomes. Transient.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error   { return e.Err }
func (e *TimeoutError) Kind() ErrorKind { return KindTimeout }

// InvalidResponseError means the remote answered but the payload was
// unusable. Counts as a failure for the breaker but does not imply the
// session itself is corrupt.
type InvalidResponseError struct {
	Op     string
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("%s: invalid response: %s", e.Op, e.Reason)
}

func (e *InvalidResponseError) Kind() ErrorKind { return KindInvalidResponse }

// KindOf classifies any error into the closed taxonomy.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	return KindUnknown
}

// classify wraps a raw transport error into the taxonomy for the given
// operation name.
func classify(op string, err error) error {
	switch KindOf(err) {
	case KindTimeout:
		return &TimeoutError{Op: op, Err: err}
	default:
		return &NetworkError{Op: op, Err: err}
	}
}
