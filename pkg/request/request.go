// Package request deduplicates and dispatches REST requests and tracks their
// lifecycle.
package request

import (
	"net/http"
	"time"

	"github.com/illmade-knight/go-remotedata/pkg/cache"
	"github.com/illmade-knight/go-remotedata/pkg/hal"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

// Parsed is the outcome of parsing a raw response.
type Parsed struct {
	Response *cache.Response
	// Objects are added to the object cache before the request completes.
	Objects []hal.Resource
}

// Parser turns a successful raw response into a cacheable response and the
// normalized objects it carried.
type Parser interface {
	Parse(req *Request, raw *rest.Response) (*Parsed, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(req *Request, raw *rest.Response) (*Parsed, error)

// Parse calls f.
func (f ParserFunc) Parse(req *Request, raw *rest.Response) (*Parsed, error) {
	return f(req, raw)
}

// Request is a REST call registered with the Service.
type Request struct {
	ID     string
	Method string
	Href   string
	Body   []byte
	// Parser may be nil for mutations whose response body is not needed.
	Parser Parser
	// TTL overrides the service default for the cached response and objects.
	TTL time.Duration
}

// NewGetRequest creates a GET request.
func NewGetRequest(id, href string, parser Parser) *Request {
	return &Request{ID: id, Method: http.MethodGet, Href: href, Parser: parser}
}

// NewPatchRequest creates a PATCH request with a JSON patch body.
func NewPatchRequest(id, href string, body []byte) *Request {
	return &Request{ID: id, Method: http.MethodPatch, Href: href, Body: body}
}

// NewDeleteRequest creates a DELETE request.
func NewDeleteRequest(id, href string) *Request {
	return &Request{ID: id, Method: http.MethodDelete, Href: href}
}

// IsMutation reports whether the request changes server state.
func (r *Request) IsMutation() bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

// Key is the deduplication identity. Reads share one key per href; mutations
// are never merged, so each is keyed by its own id.
func (r *Request) Key() string {
	if r.IsMutation() {
		return r.Method + " " + r.Href + "#" + r.ID
	}
	return r.Method + " " + r.Href
}
