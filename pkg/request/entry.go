package request

import (
	"context"
	"sync"
	"time"

	"github.com/illmade-knight/go-remotedata/pkg/remotedata"
)

// Snapshot is the lifecycle state of a request at one point in time.
type Snapshot struct {
	State        remotedata.State
	StatusCode   int
	ErrorMessage string
	Completed    time.Time
}

// Entry tracks one dispatched request. Every caller that configures the same
// read shares the entry, and every reader sees its latest state.
type Entry struct {
	request *Request

	mu   sync.RWMutex
	snap Snapshot
	done chan struct{}
}

func newEntry(req *Request) *Entry {
	return &Entry{
		request: req,
		snap:    Snapshot{State: remotedata.ResponsePending},
		done:    make(chan struct{}),
	}
}

func newCompletedEntry(req *Request, statusCode int, at time.Time) *Entry {
	e := &Entry{
		request: req,
		snap:    Snapshot{State: remotedata.Success, StatusCode: statusCode, Completed: at},
		done:    make(chan struct{}),
	}
	close(e.done)
	return e
}

// Request returns the request this entry was created for.
func (e *Entry) Request() *Request { return e.request }

// Snapshot returns the current state.
func (e *Entry) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// Done is closed once the entry reaches a terminal state.
func (e *Entry) Done() <-chan struct{} { return e.done }

// Wait blocks until the entry is terminal or ctx is done. On ctx expiry the
// current, still pending, snapshot is returned with the context error.
func (e *Entry) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-e.done:
		return e.Snapshot(), nil
	case <-ctx.Done():
		return e.Snapshot(), ctx.Err()
	}
}

func (e *Entry) isPending() bool {
	return !e.Snapshot().isTerminal()
}

func (e *Entry) complete(snap Snapshot) {
	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()
	close(e.done)
}

func (s Snapshot) isTerminal() bool {
	return s.State == remotedata.Success || s.State == remotedata.Error
}
