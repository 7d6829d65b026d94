package rest

import (
	"errors"
	"fmt"
)

// TransportError means no response was received.
type TransportError struct {
	Method string
	Href   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Href, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a response with a non-2xx status.
type HTTPError struct {
	StatusCode int
	StatusText string
	Body       []byte
}

func (e *HTTPError) Error() string {
	if e.StatusText != "" {
		return fmt.Sprintf("%d %s", e.StatusCode, e.StatusText)
	}
	return fmt.Sprintf("%d", e.StatusCode)
}

// ParseError is a response whose body did not have the expected shape.
type ParseError struct {
	Href       string
	StatusCode int
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse response from %s: %v", e.Href, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}
