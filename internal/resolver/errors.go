package resolver

import (
	"errors"
	"fmt"
)

// Kind classifies a failed resolve
type Kind int

const (
	None Kind = iota
	InvalidReference
	ExecutionError
	DomainNotApproved
	// NetworkError also covers calls refused by an open circuit breaker,
	// which match resilience.ErrCircuitOpen through Result.Err.
	NetworkError
	Canceled
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case InvalidReference:
		return "invalid-reference"
	case ExecutionError:
		return "execution-error"
	case DomainNotApproved:
		return "domain-not-approved"
	case NetworkError:
		return "network-error"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidReference  = errors.New("invalid reference")
	ErrExecution         = errors.New("local execution failed")
	ErrDomainNotApproved = errors.New("domain is not allow-listed")
	ErrNetwork           = errors.New("fetch failed")
	ErrCanceled          = errors.New("resolve canceled")
)

var sentinels = map[Kind]error{
	InvalidReference:  ErrInvalidReference,
	ExecutionError:    ErrExecution,
	DomainNotApproved: ErrDomainNotApproved,
	NetworkError:      ErrNetwork,
	Canceled:          ErrCanceled,
}

// Error is the failure carried by an unsuccessful Result. Err is the cause
// and is nil for policy rejections.
type Error struct {
	Kind      Kind
	Reference string
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Reference)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && target == s
}
