// Package remotedata describes the lifecycle of an asynchronous fetch from the REST API.
package remotedata

import "fmt"

// State is the lifecycle stage of a remote data value.
type State int

const (
	// RequestPending means the request has not been dispatched or has no entry yet.
	RequestPending State = iota
	// ResponsePending means the request is in flight.
	ResponsePending
	// Success means the response arrived and was parsed.
	Success
	// Error means the request settled with a transport, HTTP or parse failure.
	Error
)

func (s State) String() string {
	switch s {
	case RequestPending:
		return "RequestPending"
	case ResponsePending:
		return "ResponsePending"
	case Success:
		return "Success"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{RequestPending, ResponsePending, Success, Error} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// RemoteData wraps the state and payload of a single fetch.
// Payload is only meaningful when HasSucceeded reports true, and may still be nil
// for a resource that does not exist.
type RemoteData[T any] struct {
	State        State  `json:"state"`
	StatusCode   int    `json:"statusCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Payload      T      `json:"payload"`
}

// Pending returns a value whose request has not been sent yet.
func Pending[T any]() RemoteData[T] {
	return RemoteData[T]{State: RequestPending}
}

// ResponsePendingOf returns a value whose request is in flight.
func ResponsePendingOf[T any]() RemoteData[T] {
	return RemoteData[T]{State: ResponsePending}
}

// Succeeded returns a successful value.
func Succeeded[T any](payload T, statusCode int) RemoteData[T] {
	return RemoteData[T]{State: Success, StatusCode: statusCode, Payload: payload}
}

// Failed returns a failed value. The payload is always the zero value.
func Failed[T any](message string, statusCode int) RemoteData[T] {
	return RemoteData[T]{State: Error, StatusCode: statusCode, ErrorMessage: message}
}

// IsRequestPending reports whether the request has not been sent.
func (rd RemoteData[T]) IsRequestPending() bool { return rd.State == RequestPending }

// IsResponsePending reports whether the request is in flight.
func (rd RemoteData[T]) IsResponsePending() bool { return rd.State == ResponsePending }

// IsLoading reports whether the value is in either pending state.
func (rd RemoteData[T]) IsLoading() bool {
	return rd.State == RequestPending || rd.State == ResponsePending
}

// HasSucceeded reports whether Payload can be read.
func (rd RemoteData[T]) HasSucceeded() bool { return rd.State == Success }

// HasFailed reports whether the fetch settled with an error.
func (rd RemoteData[T]) HasFailed() bool { return rd.State == Error }

// IsTerminal reports whether the value will not change any more.
func (rd RemoteData[T]) IsTerminal() bool { return rd.State == Success || rd.State == Error }

// MapPayload transforms the payload of a successful value and carries every other
// state across unchanged.
func MapPayload[T, U any](rd RemoteData[T], fn func(T) U) RemoteData[U] {
	switch rd.State {
	case Success:
		return Succeeded(fn(rd.Payload), rd.StatusCode)
	case Error:
		return Failed[U](rd.ErrorMessage, rd.StatusCode)
	default:
		return RemoteData[U]{State: rd.State, StatusCode: rd.StatusCode}
	}
}

// Retype carries the state of a non-successful value into another payload type.
// It panics if called on a successful value, which has a payload that cannot be converted.
func Retype[U, T any](rd RemoteData[T]) RemoteData[U] {
	if rd.State == Success {
		panic("remotedata: Retype called on a successful value")
	}
	return RemoteData[U]{State: rd.State, StatusCode: rd.StatusCode, ErrorMessage: rd.ErrorMessage}
}
