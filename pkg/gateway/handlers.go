// Package gateway exposes the domain services as a small JSON API.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-remotedata/pkg/data"
	"github.com/illmade-knight/go-remotedata/pkg/remotedata"
	"github.com/illmade-knight/go-remotedata/pkg/request"
	"github.com/illmade-knight/go-remotedata/pkg/search"
)

// Handlers serves RemoteData values as JSON.
type Handlers struct {
	services *data.Services
	search   *search.Service
	requests *request.Service
	// wait bounds how long a handler waits for a terminal state before
	// answering with the pending state.
	wait   time.Duration
	logger zerolog.Logger
}

// NewHandlers creates the gateway handlers.
func NewHandlers(
	services *data.Services,
	searchService *search.Service,
	requests *request.Service,
	wait time.Duration,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		services: services,
		search:   searchService,
		requests: requests,
		wait:     wait,
		logger:   logger.With().Str("component", "Gateway").Logger(),
	}
}

// Register mounts the API routes on r.
func (h *Handlers) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/communities/top", h.topCommunities)
		r.Get("/communities/{id}", h.community)
		r.Get("/collections/{id}", h.collection)
		r.Get("/items/{id}", h.item)
		r.Get("/search", h.searchObjects)
		r.Post("/cache/invalidate", h.invalidate)
	})
}

func (h *Handlers) context(r *http.Request) (context.Context, context.CancelFunc) {
	if h.wait <= 0 {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), h.wait)
}

func (h *Handlers) topCommunities(w http.ResponseWriter, r *http.Request) {
	opts, ok := pagination(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()
	writeRemoteData(w, h.logger, h.services.Communities.FindTop(ctx, opts))
}

func (h *Handlers) community(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	writeRemoteData(w, h.logger, h.services.Communities.FindByID(ctx, chi.URLParam(r, "id")))
}

func (h *Handlers) collection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	writeRemoteData(w, h.logger, h.services.Collections.FindByID(ctx, chi.URLParam(r, "id")))
}

func (h *Handlers) item(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	writeRemoteData(w, h.logger, h.services.Items.FindByID(ctx, chi.URLParam(r, "id")))
}

func (h *Handlers) searchObjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := search.DefaultOptions()
	page, ok := pagination(w, r)
	if !ok {
		return
	}
	opts.Pagination.CurrentPage = page.CurrentPage
	opts.Pagination.ElementsPerPage = page.ElementsPerPage
	opts.Query = q.Get("query")
	opts.Scope = q.Get("scope")
	opts.DSOType = q.Get("dsoType")
	for key, values := range q {
		if strings.HasPrefix(key, "f.") {
			if opts.Filters == nil {
				opts.Filters = make(map[string][]string)
			}
			opts.Filters[key] = values
		}
	}

	ctx, cancel := h.context(r)
	defer cancel()
	writeRemoteData(w, h.logger, h.search.Search(ctx, opts))
}

func (h *Handlers) invalidate(w http.ResponseWriter, r *http.Request) {
	href := r.URL.Query().Get("href")
	if href == "" {
		http.Error(w, "href is required", http.StatusBadRequest)
		return
	}
	if err := h.requests.Invalidate(r.Context(), href); err != nil {
		h.logger.Error().Err(err).Str("href", href).Msg("Failed to invalidate.")
		http.Error(w, "failed to invalidate", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pagination reads the 1-based page and size query parameters.
func pagination(w http.ResponseWriter, r *http.Request) (data.FindListOptions, bool) {
	opts := data.FindListOptions{CurrentPage: 1, ElementsPerPage: 10}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "page must be a positive integer", http.StatusBadRequest)
			return opts, false
		}
		opts.CurrentPage = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "size must be a positive integer", http.StatusBadRequest)
			return opts, false
		}
		opts.ElementsPerPage = n
	}
	return opts, true
}

// statusFor maps a RemoteData state onto the gateway's own response status.
func statusFor[T any](rd remotedata.RemoteData[T]) int {
	switch {
	case rd.HasSucceeded():
		return http.StatusOK
	case rd.HasFailed():
		if rd.StatusCode >= 400 {
			return rd.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusAccepted
	}
}

func writeRemoteData[T any](w http.ResponseWriter, logger zerolog.Logger, rd remotedata.RemoteData[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(rd))
	if err := json.NewEncoder(w).Encode(rd); err != nil {
		logger.Error().Err(err).Msg("Failed to write response.")
	}
}
