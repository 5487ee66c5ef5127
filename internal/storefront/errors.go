package storefront

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a read produced no data.
type FailureKind int

const (
	// TransportFailure covers network errors, timeouts and non-2xx answers.
	TransportFailure FailureKind = iota + 1
	// MalformedResponse is a successful answer that is not the expected JSON.
	MalformedResponse
)

func (k FailureKind) String() string {
	switch k {
	case TransportFailure:
		return "transport failure"
	case MalformedResponse:
		return "malformed response"
	default:
		return "unknown failure"
	}
}

// FetchError is returned by every Client read that yields no data.
type FetchError struct {
	Kind   FailureKind
	URL    string
	Status int // 0 when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: GET %s (status %d): %v", e.Kind, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: GET %s: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsMalformed reports whether err is a FetchError of kind MalformedResponse.
func IsMalformed(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == MalformedResponse
}
