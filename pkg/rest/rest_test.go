package rest_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

func TestCombineURL(t *testing.T) {
	assert.Equal(t, "https://rest.api/core/items", rest.CombineURL("https://rest.api/", "/core/", "items"))
	assert.Equal(t, "https://rest.api/core/items/1", rest.CombineURL("https://rest.api", "core/items", "", "1"))
	assert.Equal(t, "https://rest.api", rest.CombineURL("https://rest.api/"))
}

func TestWithQuery(t *testing.T) {
	t.Run("Keys are sorted", func(t *testing.T) {
		a, err := rest.WithQuery("https://rest.api/search", url.Values{"size": {"10"}, "page": {"0"}, "query": {"x y"}})
		require.NoError(t, err)
		b, err := rest.WithQuery("https://rest.api/search?size=10", url.Values{"query": {"x y"}, "page": {"0"}})
		require.NoError(t, err)

		assert.Equal(t, a, b)
		assert.Equal(t, "https://rest.api/search?page=0&query=x+y&size=10", a)
	})

	t.Run("Canonical", func(t *testing.T) {
		href, err := rest.Canonical("https://rest.api/search?b=2&a=1")

		require.NoError(t, err)
		assert.Equal(t, "https://rest.api/search?a=1&b=2", href)
	})

	t.Run("Invalid href", func(t *testing.T) {
		_, err := rest.WithQuery("://bad", nil)

		assert.Error(t, err)
	})
}

func TestErrors(t *testing.T) {
	httpErr := &rest.HTTPError{StatusCode: 404, StatusText: "Not Found"}
	assert.Equal(t, "404 Not Found", httpErr.Error())
	assert.Equal(t, 404, rest.StatusOf(fmt.Errorf("wrapped: %w", httpErr)))

	parseErr := &rest.ParseError{Href: "h", StatusCode: 200, Err: errors.New("bad json")}
	assert.Equal(t, 200, rest.StatusOf(parseErr))

	cause := errors.New("connection refused")
	transportErr := &rest.TransportError{Method: http.MethodGet, Href: "h", Err: cause}
	assert.ErrorIs(t, transportErr, cause)
	assert.Equal(t, 0, rest.StatusOf(transportErr))
}

func TestHTTPTransport(t *testing.T) {
	ctx := context.Background()

	t.Run("Sends bearer token and HAL accept header", func(t *testing.T) {
		// Arrange
		var gotAuth, gotAccept string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotAccept = r.Header.Get("Accept")
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()
		tr := rest.NewHTTPTransport(ctx, &rest.HTTPConfig{Timeout: 5 * time.Second, Token: "secret"}, zerolog.Nop())

		// Act
		resp, err := tr.Do(ctx, &rest.Request{Method: http.MethodGet, Href: srv.URL})

		// Assert
		require.NoError(t, err)
		assert.True(t, resp.IsSuccessful())
		assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
		assert.Equal(t, "Bearer secret", gotAuth)
		assert.Contains(t, gotAccept, "application/hal+json")
	})

	t.Run("Non-2xx is not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()
		tr := rest.NewHTTPTransportWithClient(srv.Client(), zerolog.Nop())

		resp, err := tr.Do(ctx, &rest.Request{Method: http.MethodGet, Href: srv.URL})

		require.NoError(t, err)
		assert.False(t, resp.IsSuccessful())
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Body is sent as JSON", func(t *testing.T) {
		var gotBody, gotType string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			gotType = r.Header.Get("Content-Type")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()
		tr := rest.NewHTTPTransportWithClient(srv.Client(), zerolog.Nop())

		_, err := tr.Do(ctx, &rest.Request{Method: http.MethodPatch, Href: srv.URL, Body: []byte(`[]`)})

		require.NoError(t, err)
		assert.Equal(t, "[]", gotBody)
		assert.Equal(t, "application/json", gotType)
	})

	t.Run("Unreachable server is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		href := srv.URL
		srv.Close()
		tr := rest.NewHTTPTransport(ctx, &rest.HTTPConfig{Timeout: time.Second}, zerolog.Nop())

		_, err := tr.Do(ctx, &rest.Request{Method: http.MethodGet, Href: href})

		var te *rest.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, href, te.Href)
	})

	t.Run("Rate limit respects context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer srv.Close()
		tr := rest.NewHTTPTransport(ctx, &rest.HTTPConfig{RequestsPerSecond: 0.001, Burst: 1}, zerolog.Nop())
		_, err := tr.Do(ctx, &rest.Request{Method: http.MethodGet, Href: srv.URL})
		require.NoError(t, err)

		cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = tr.Do(cctx, &rest.Request{Method: http.MethodGet, Href: srv.URL})

		var te *rest.TransportError
		assert.ErrorAs(t, err, &te)
	})
}
