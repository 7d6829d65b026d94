// Package builder composes the request service and the caches into RemoteData
// values for consumers.
package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-remotedata/pkg/cache"
	"github.com/illmade-knight/go-remotedata/pkg/remotedata"
	"github.com/illmade-knight/go-remotedata/pkg/request"
)

// Builder holds the shared services every build reads from.
type Builder struct {
	requests  *request.Service
	responses *cache.ResponseCache
	objects   *cache.ObjectCache
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a builder.
func New(
	requests *request.Service,
	responses *cache.ResponseCache,
	objects *cache.ObjectCache,
	logger zerolog.Logger,
) *Builder {
	return &Builder{
		requests:  requests,
		responses: responses,
		objects:   objects,
		logger:    logger.With().Str("component", "RemoteDataBuilder").Logger(),
		now:       time.Now,
	}
}

// Requests returns the request service the builder dispatches through.
func (b *Builder) Requests() *request.Service { return b.requests }

// Objects returns the object cache.
func (b *Builder) Objects() *cache.ObjectCache { return b.objects }

// PayloadFunc derives a payload from the cached response of a successful request.
type PayloadFunc[T any] func(ctx context.Context, entry cache.ResponseEntry) (T, error)

// JSONPayload decodes the endpoint-specific payload of a response into T.
func JSONPayload[T any]() PayloadFunc[T] {
	return func(_ context.Context, entry cache.ResponseEntry) (T, error) {
		var out T
		if len(entry.Response.Payload) == 0 {
			return out, nil
		}
		if err := json.Unmarshal(entry.Response.Payload, &out); err != nil {
			return out, fmt.Errorf("unexpected payload for %s: %w", entry.Href, err)
		}
		return out, nil
	}
}

// ToRemoteData waits for the entry to settle and combines its state with the
// payload read from the caches. If ctx ends first the pending state is returned.
func ToRemoteData[T any](ctx context.Context, b *Builder, e *request.Entry, payload PayloadFunc[T]) remotedata.RemoteData[T] {
	snap, err := e.Wait(ctx)
	if err != nil {
		return remotedata.RemoteData[T]{State: snap.State}
	}
	return fromSnapshot(ctx, b, e, snap, payload)
}

// Current returns the state of the entry right now without waiting.
func Current[T any](ctx context.Context, b *Builder, e *request.Entry, payload PayloadFunc[T]) remotedata.RemoteData[T] {
	return fromSnapshot(ctx, b, e, e.Snapshot(), payload)
}

// Observe emits the current state and, if that is not terminal, the terminal
// state once the entry settles. The channel is closed afterwards, or when ctx
// ends.
func Observe[T any](ctx context.Context, b *Builder, e *request.Entry, payload PayloadFunc[T]) <-chan remotedata.RemoteData[T] {
	out := make(chan remotedata.RemoteData[T], 2)
	go func() {
		defer close(out)
		first := Current(ctx, b, e, payload)
		out <- first
		if first.IsTerminal() {
			return
		}
		snap, err := e.Wait(ctx)
		if err != nil {
			return
		}
		out <- fromSnapshot(ctx, b, e, snap, payload)
	}()
	return out
}

func fromSnapshot[T any](
	ctx context.Context,
	b *Builder,
	e *request.Entry,
	snap request.Snapshot,
	payload PayloadFunc[T],
) remotedata.RemoteData[T] {
	switch snap.State {
	case remotedata.Error:
		return remotedata.Failed[T](snap.ErrorMessage, snap.StatusCode)
	case remotedata.Success:
	default:
		return remotedata.RemoteData[T]{State: snap.State}
	}

	req := e.Request()
	var entry cache.ResponseEntry
	if req.IsMutation() {
		entry = cache.ResponseEntry{
			Href:     req.Href,
			Response: &cache.Response{IsSuccessful: true, StatusCode: snap.StatusCode},
		}
	} else {
		var ok bool
		entry, ok = b.responses.Get(ctx, req.Href)
		if !ok {
			b.logger.Warn().Str("href", req.Href).Msg("Response evicted before it was read.")
			return remotedata.Failed[T](fmt.Sprintf("response for %s is no longer cached", req.Href), snap.StatusCode)
		}
	}

	value, err := payload(ctx, entry)
	if err != nil {
		return remotedata.Failed[T](err.Error(), snap.StatusCode)
	}
	return remotedata.Succeeded(value, snap.StatusCode)
}
