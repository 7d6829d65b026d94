// Package objectupdates tracks unsaved field edits of an object, keyed by the
// object's URL, with discard and undo.
package objectupdates

import (
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ChangeType is the kind of pending change to a field.
type ChangeType int

const (
	NoChange ChangeType = iota
	Add
	Update
	Remove
)

func (c ChangeType) String() string {
	switch c {
	case Add:
		return "ADD"
	case Update:
		return "UPDATE"
	case Remove:
		return "REMOVE"
	default:
		return "NONE"
	}
}

// Field is an editable value with a stable identity.
type Field struct {
	UUID  string
	Value any
}

// FieldUpdate is a field with its pending change.
type FieldUpdate struct {
	Field      Field
	ChangeType ChangeType
}

type objectEntry struct {
	initial      map[string]Field
	updates      map[string]FieldUpdate
	lastModified time.Time
}

func (e *objectEntry) clone() *objectEntry {
	return &objectEntry{
		initial:      maps.Clone(e.initial),
		updates:      maps.Clone(e.updates),
		lastModified: e.lastModified,
	}
}

// Service keeps the pending updates of every object being edited.
type Service struct {
	mu      sync.Mutex
	entries map[string]*objectEntry
	undo    map[string]*objectEntry
	logger  zerolog.Logger
}

// NewService creates an empty update tracker.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		entries: make(map[string]*objectEntry),
		undo:    make(map[string]*objectEntry),
		logger:  logger.With().Str("component", "ObjectUpdates").Logger(),
	}
}

// Initialize starts tracking the object at url with its current fields. An
// object already tracked at the same or a later modification time keeps its
// pending updates.
func (s *Service) Initialize(url string, fields []Field, lastModified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[url]; ok && !lastModified.After(existing.lastModified) {
		return
	}
	initial := make(map[string]Field, len(fields))
	for _, f := range fields {
		initial[f.UUID] = f
	}
	s.entries[url] = &objectEntry{
		initial:      initial,
		updates:      make(map[string]FieldUpdate),
		lastModified: lastModified,
	}
	delete(s.undo, url)
}

func (s *Service) entry(url string) *objectEntry {
	e, ok := s.entries[url]
	if !ok {
		e = &objectEntry{initial: map[string]Field{}, updates: map[string]FieldUpdate{}}
		s.entries[url] = e
	}
	return e
}

// SaveAddFieldUpdate records a new field.
func (s *Service) SaveAddFieldUpdate(url string, field Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(url).updates[field.UUID] = FieldUpdate{Field: field, ChangeType: Add}
}

// SaveChangeFieldUpdate records a changed value. A field that was added keeps
// its Add change with the new value.
func (s *Service) SaveChangeFieldUpdate(url string, field Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(url)
	change := Update
	if prev, ok := e.updates[field.UUID]; ok && prev.ChangeType == Add {
		change = Add
	}
	e.updates[field.UUID] = FieldUpdate{Field: field, ChangeType: change}
}

// SaveRemoveFieldUpdate records a removed field. Removing a field that was only
// added drops it altogether.
func (s *Service) SaveRemoveFieldUpdate(url string, field Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(url)
	if prev, ok := e.updates[field.UUID]; ok && prev.ChangeType == Add {
		delete(e.updates, field.UUID)
		return
	}
	e.updates[field.UUID] = FieldUpdate{Field: field, ChangeType: Remove}
}

// RemoveSingleFieldUpdate forgets the pending change of one field.
func (s *Service) RemoveSingleFieldUpdate(url, uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[url]; ok {
		delete(e.updates, uuid)
	}
}

// GetFieldUpdates returns every initial field, with its pending change if any,
// plus every added field.
func (s *Service) GetFieldUpdates(url string) map[string]FieldUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]FieldUpdate)
	e, ok := s.entries[url]
	if !ok {
		return out
	}
	for id, f := range e.initial {
		out[id] = FieldUpdate{Field: f, ChangeType: NoChange}
	}
	for id, u := range e.updates {
		out[id] = u
	}
	return out
}

// HasUpdates reports whether the object at url has pending changes.
func (s *Service) HasUpdates(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[url]
	return ok && len(e.updates) > 0
}

// DiscardFieldUpdates drops the pending changes of the object at url, keeping
// them so ReinstateFieldUpdates can bring them back.
func (s *Service) DiscardFieldUpdates(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardLocked(url)
}

// DiscardAllFieldUpdates discards the pending changes of every object whose url
// starts with prefix.
func (s *Service) DiscardAllFieldUpdates(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for url := range s.entries {
		if strings.HasPrefix(url, prefix) {
			s.discardLocked(url)
		}
	}
}

func (s *Service) discardLocked(url string) {
	e, ok := s.entries[url]
	if !ok || len(e.updates) == 0 {
		return
	}
	s.undo[url] = e.clone()
	e.updates = make(map[string]FieldUpdate)
	s.logger.Debug().Str("url", url).Msg("Discarded field updates.")
}

// ReinstateFieldUpdates restores the changes discarded last for url. It
// reports whether there was anything to restore.
func (s *Service) ReinstateFieldUpdates(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.undo[url]
	if !ok {
		return false
	}
	s.entries[url] = snapshot
	delete(s.undo, url)
	return true
}

// IsReinstatable reports whether discarded changes can be restored for url.
func (s *Service) IsReinstatable(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.undo[url]
	return ok
}

// RemoveFieldUpdates stops tracking the object at url, e.g. after its changes
// were saved.
func (s *Service) RemoveFieldUpdates(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, url)
	delete(s.undo, url)
}
