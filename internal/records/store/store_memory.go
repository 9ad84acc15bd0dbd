package store

import (
	"context"
	"sync"
	"time"

	"lostfound/internal/records/models"
	"lostfound/pkg/platform/sentinel"
)

// InMemoryStore keeps records in a map. The mutex models the document-level
// atomicity a real store gives a conditional update.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.Record
	order   []string
	keys    map[string]string // category|unique_key -> record id
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*models.Record),
		keys:    make(map[string]string),
	}
}

func uniqueIndexKey(r *models.Record) string {
	return string(r.Category) + "|" + r.UniqueKey
}

func (s *InMemoryStore) Insert(_ context.Context, r *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if r.UniqueKey != "" {
		if _, ok := s.keys[uniqueIndexKey(r)]; ok {
			return sentinel.ErrAlreadyUsed
		}
		s.keys[uniqueIndexKey(r)] = r.ID
	}
	s.records[r.ID] = r.Clone()
	s.order = append(s.order, r.ID)
	return nil
}

// FindOne returns the oldest record matching f.
func (s *InMemoryStore) FindOne(_ context.Context, f Filter) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r := s.first(f); r != nil {
		return r.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// Find returns up to limit matching records, oldest first.
func (s *InMemoryStore) Find(_ context.Context, f Filter, limit int) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Record, 0)
	for _, id := range s.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		if r := s.records[id]; f.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// ConditionalUpdate applies u to the oldest record matching f and returns the
// updated record. Returns sentinel.ErrNotFound when nothing matches.
func (s *InMemoryStore) ConditionalUpdate(_ context.Context, f Filter, u Update) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.first(f)
	if r == nil {
		return nil, sentinel.ErrNotFound
	}
	u.Apply(r)
	return r.Clone(), nil
}

// DeleteExpired removes claimed records whose grace window has elapsed.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	kept := s.order[:0]
	for _, id := range s.order {
		r := s.records[id]
		if r.ExpiredAt(now) {
			delete(s.records, id)
			if r.UniqueKey != "" {
				delete(s.keys, uniqueIndexKey(r))
			}
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed, nil
}

func (s *InMemoryStore) first(f Filter) *models.Record {
	if f.ID != "" {
		if r, ok := s.records[f.ID]; ok && f.Matches(r) {
			return r
		}
		return nil
	}
	for _, id := range s.order {
		if r := s.records[id]; f.Matches(r) {
			return r
		}
	}
	return nil
}
