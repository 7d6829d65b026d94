package remotedata

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Combine joins a set of snapshots into one list-shaped value.
// An Error anywhere wins and reports the first failing member in input order;
// otherwise a pending member keeps the whole result pending.
func Combine[T any](rds ...RemoteData[T]) RemoteData[[]T] {
	pending := false
	for _, rd := range rds {
		switch rd.State {
		case Error:
			return Failed[[]T](rd.ErrorMessage, rd.StatusCode)
		case RequestPending, ResponsePending:
			pending = true
		}
	}
	if pending {
		for _, rd := range rds {
			if rd.State == ResponsePending {
				return ResponsePendingOf[[]T]()
			}
		}
		return Pending[[]T]()
	}
	payloads := make([]T, len(rds))
	for i, rd := range rds {
		payloads[i] = rd.Payload
	}
	return Succeeded(payloads, 200)
}

// Source resolves a single remote data value, blocking until it is terminal or
// ctx is done.
type Source[T any] func(ctx context.Context) RemoteData[T]

// memberError carries a failed member through the errgroup.
type memberError struct {
	message    string
	statusCode int
}

func (e *memberError) Error() string { return e.message }

// Aggregate resolves all sources concurrently. It succeeds when every source
// succeeds and returns as soon as the first one fails, without waiting for the
// others. Remaining sources observe a cancelled context.
func Aggregate[T any](ctx context.Context, sources []Source[T]) RemoteData[[]T] {
	payloads := make([]T, len(sources))
	failed := make(chan *memberError, 1)

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			rd := src(gctx)
			switch {
			case rd.HasSucceeded():
				payloads[i] = rd.Payload
				return nil
			case rd.HasFailed():
				me := &memberError{message: rd.ErrorMessage, statusCode: rd.StatusCode}
				select {
				case failed <- me:
				default:
				}
				return me
			default:
				if err := gctx.Err(); err != nil {
					return err
				}
				return &memberError{message: "source returned without settling"}
			}
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case me := <-failed:
		return Failed[[]T](me.message, me.statusCode)
	case err := <-done:
		if err == nil {
			return Succeeded(payloads, 200)
		}
		var me *memberError
		if errors.As(err, &me) {
			return Failed[[]T](me.message, me.statusCode)
		}
		return Failed[[]T](err.Error(), 0)
	}
}
