package request

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-remotedata/pkg/cache"
	"github.com/illmade-knight/go-remotedata/pkg/hal"
	"github.com/illmade-knight/go-remotedata/pkg/remotedata"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

// Config holds configuration for the request service.
type Config struct {
	// DefaultTTL applies to requests that carry no TTL of their own.
	DefaultTTL time.Duration
	// EntryRetention is how long a settled entry is kept before Sweep drops it.
	EntryRetention time.Duration
}

// maxSupersededRefetches bounds how often a read is repeated because a
// mutation of its href succeeded while it was in flight.
const maxSupersededRefetches = 2

// Service dispatches REST requests at most once per outstanding read and
// records their results in the response and object caches.
type Service struct {
	transport rest.Transport
	responses *cache.ResponseCache
	objects   *cache.ObjectCache
	cfg       Config
	logger    zerolog.Logger

	mu      sync.Mutex
	entries map[string]*Entry
	// mutationSeq numbers successful mutations; mutated holds the number of
	// the latest one per href. Both are guarded by mu.
	mutationSeq uint64
	mutated     map[string]uint64
	// commitMu orders cache commits of reads against mutation invalidations.
	commitMu sync.Mutex

	dispatched atomic.Int64
	inflight   sync.WaitGroup
	now        func() time.Time
}

// NewService creates a request service.
func NewService(
	cfg *Config,
	transport rest.Transport,
	responses *cache.ResponseCache,
	objects *cache.ObjectCache,
	logger zerolog.Logger,
) *Service {
	return &Service{
		transport: transport,
		responses: responses,
		objects:   objects,
		cfg:       *cfg,
		logger:    logger.With().Str("component", "RequestService").Logger(),
		entries:     make(map[string]*Entry),
		mutated:     make(map[string]uint64),
		now:         time.Now,
	}
}

// GenerateRequestID returns a fresh unique id.
func (s *Service) GenerateRequestID() string {
	return uuid.NewString()
}

// Configure registers req. A read is not dispatched when an equivalent one is in
// flight or its response is still fresh in the response cache; the existing
// entry is returned instead. Every other request is dispatched in the
// background. Cancelling ctx does not abort a dispatched call.
func (s *Service) Configure(ctx context.Context, req *Request) *Entry {
	if req.IsMutation() {
		e := newEntry(req)
		s.start(ctx, e)
		return e
	}

	key := req.Key()
	s.mu.Lock()
	if existing, ok := s.entries[key]; ok {
		if existing.isPending() {
			s.mu.Unlock()
			s.logger.Debug().Str("href", req.Href).Msg("Request already in flight, attaching.")
			return existing
		}
		if existing.Snapshot().State == remotedata.Success && s.responses.Has(ctx, req.Href) {
			s.mu.Unlock()
			s.logger.Debug().Str("href", req.Href).Msg("Fresh response cached, not dispatching.")
			return existing
		}
	} else if cached, ok := s.responses.Get(ctx, req.Href); ok && !cached.IsStale(s.now()) {
		// another process filled a shared response cache
		e := newCompletedEntry(req, cached.Response.StatusCode, cached.Timestamp)
		s.entries[key] = e
		s.mu.Unlock()
		return e
	}
	e := newEntry(req)
	s.entries[key] = e
	s.mu.Unlock()

	s.start(ctx, e)
	return e
}

func (s *Service) start(ctx context.Context, e *Entry) {
	s.dispatched.Add(1)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.dispatch(context.WithoutCancel(ctx), e)
	}()
}

// GetByHref returns the entry of the read for href, if one was configured.
func (s *Service) GetByHref(href string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[http.MethodGet+" "+href]
	return e, ok
}

// DispatchCount returns how many calls reached the transport.
func (s *Service) DispatchCount() int64 {
	return s.dispatched.Load()
}

// RemoveByHrefSubstring forgets every read whose href contains substr and
// evicts its cached response, so the next Configure fetches again. Reads
// still in flight for those hrefs fetch again before caching.
func (s *Service) RemoveByHrefSubstring(ctx context.Context, substr string) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	s.mutationSeq++
	var hrefs []string
	for key, e := range s.entries {
		if !strings.Contains(e.request.Href, substr) {
			continue
		}
		hrefs = append(hrefs, e.request.Href)
		s.mutated[e.request.Href] = s.mutationSeq
		if !e.isPending() {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()

	for _, href := range hrefs {
		if err := s.responses.Remove(ctx, href); err != nil {
			s.logger.Error().Err(err).Str("href", href).Msg("Failed to evict cached response.")
		}
	}
	s.logger.Debug().Str("substring", substr).Int("removed", len(hrefs)).Msg("Removed requests by href.")
}

// Invalidate evicts everything cached for href: the read entry, the response
// and the object with that self link.
func (s *Service) Invalidate(ctx context.Context, href string) error {
	s.mu.Lock()
	delete(s.entries, http.MethodGet+" "+href)
	s.mu.Unlock()
	return errors.Join(s.responses.Remove(ctx, href), s.objects.Remove(ctx, href))
}

// Sweep drops settled entries older than the configured retention.
func (s *Service) Sweep(now time.Time) int {
	if s.cfg.EntryRetention <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, e := range s.entries {
		snap := e.Snapshot()
		if snap.isTerminal() && now.Sub(snap.Completed) > s.cfg.EntryRetention {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Wait blocks until every dispatched call has settled or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) ttl(req *Request) time.Duration {
	if req.TTL > 0 {
		return req.TTL
	}
	return s.cfg.DefaultTTL
}

func (s *Service) currentSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutationSeq
}

// mutatedSince reports whether href was mutated after seq. Callers hold mu.
func (s *Service) mutatedSince(href string, seq uint64) bool {
	return s.mutated[href] > seq
}

func (s *Service) dispatch(ctx context.Context, e *Entry) {
	req := e.request
	logger := s.logger.With().Str("method", req.Method).Str("href", req.Href).Str("request_id", req.ID).Logger()

	for attempt := 0; ; attempt++ {
		seq := s.currentSeq()
		parsed, status, err := s.fetch(ctx, req, logger)
		if err != nil {
			s.fail(e, err, logger)
			return
		}

		if req.IsMutation() {
			s.commitMutation(ctx, req, parsed, logger)
		} else {
			committed, err := s.commitRead(ctx, req, parsed, seq, logger)
			if err != nil {
				s.fail(e, err, logger)
				return
			}
			if !committed {
				if attempt < maxSupersededRefetches {
					logger.Debug().Msg("Read overlapped a successful mutation, fetching again.")
					continue
				}
				s.fail(e, fmt.Errorf("read of %s kept overlapping mutations", req.Href), logger)
				return
			}
		}

		logger.Debug().Int("status", status).Int("objects", len(parsed.Objects)).Msg("Request succeeded.")
		e.complete(Snapshot{State: remotedata.Success, StatusCode: status, Completed: s.now()})
		return
	}
}

// fetch performs the call and parses a successful response.
func (s *Service) fetch(ctx context.Context, req *Request, logger zerolog.Logger) (*Parsed, int, error) {
	raw, err := s.transport.Do(ctx, &rest.Request{Method: req.Method, Href: req.Href, Body: req.Body})
	if err != nil {
		var te *rest.TransportError
		if !errors.As(err, &te) {
			err = &rest.TransportError{Method: req.Method, Href: req.Href, Err: err}
		}
		return nil, 0, err
	}

	if !raw.IsSuccessful() {
		if !req.IsMutation() && (raw.StatusCode == http.StatusNotFound || raw.StatusCode == http.StatusGone) {
			if invErr := errors.Join(s.responses.Remove(ctx, req.Href), s.objects.Remove(ctx, req.Href)); invErr != nil {
				logger.Error().Err(invErr).Msg("Failed to evict missing resource.")
			}
		}
		return nil, raw.StatusCode, &rest.HTTPError{StatusCode: raw.StatusCode, StatusText: raw.StatusText, Body: raw.Body}
	}

	parsed := &Parsed{Response: &cache.Response{IsSuccessful: true, StatusCode: raw.StatusCode, StatusText: raw.StatusText}}
	if req.Parser != nil {
		parsed, err = req.Parser.Parse(req, raw)
		if err == nil && (parsed == nil || parsed.Response == nil) {
			err = errors.New("parser returned no response")
		}
		if err != nil {
			return nil, raw.StatusCode, &rest.ParseError{Href: req.Href, StatusCode: raw.StatusCode, Err: err}
		}
	}
	return parsed, raw.StatusCode, nil
}

// commitMutation makes every later read of the href go back to the API: the
// caches and the settled read entry are dropped, and reads still in flight
// will not commit what they fetched.
func (s *Service) commitMutation(ctx context.Context, req *Request, parsed *Parsed, logger zerolog.Logger) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	readKey := http.MethodGet + " " + req.Href
	s.mu.Lock()
	s.mutationSeq++
	s.mutated[req.Href] = s.mutationSeq
	if existing, ok := s.entries[readKey]; ok && !existing.isPending() {
		delete(s.entries, readKey)
	}
	s.mu.Unlock()

	if err := errors.Join(s.responses.Remove(ctx, req.Href), s.objects.Remove(ctx, req.Href)); err != nil {
		logger.Error().Err(err).Msg("Failed to invalidate after mutation.")
	}
	ttl := s.ttl(req)
	for _, obj := range parsed.Objects {
		if err := s.objects.Add(ctx, obj, ttl, req.Href); err != nil {
			logger.Error().Err(err).Str("self", obj.Self).Msg("Failed to cache object.")
		}
	}
}

// commitRead writes the objects and response of a read that started at seq.
// Nothing is written if the href was mutated since; objects mutated since are
// skipped.
func (s *Service) commitRead(ctx context.Context, req *Request, parsed *Parsed, seq uint64, logger zerolog.Logger) (bool, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	if s.mutatedSince(req.Href, seq) {
		s.mu.Unlock()
		return false, nil
	}
	objects := make([]hal.Resource, 0, len(parsed.Objects))
	for _, obj := range parsed.Objects {
		if s.mutatedSince(obj.Self, seq) {
			logger.Debug().Str("self", obj.Self).Msg("Skipping object mutated during the read.")
			continue
		}
		objects = append(objects, obj)
	}
	s.mu.Unlock()

	ttl := s.ttl(req)
	for _, obj := range objects {
		if err := s.objects.Add(ctx, obj, ttl, req.Href); err != nil {
			logger.Error().Err(err).Str("self", obj.Self).Msg("Failed to cache object.")
		}
	}
	if err := s.responses.Add(ctx, req.Href, parsed.Response, ttl); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) fail(e *Entry, err error, logger zerolog.Logger) {
	logger.Error().Err(err).Msg("Request failed.")
	e.complete(Snapshot{
		State:        remotedata.Error,
		StatusCode:   rest.StatusOf(err),
		ErrorMessage: err.Error(),
		Completed:    s.now(),
	})
}
