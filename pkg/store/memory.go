package store

import (
	"context"
	"sync"
)

// MemoryStore keeps records in a map. Contents are lost on exit.
type MemoryStore struct {
	mu    sync.RWMutex
	pages map[string]map[string]*Record
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: make(map[string]map[string]*Record)}
}

func (s *MemoryStore) Get(_ context.Context, pageID, blockID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.pages[pageID][blockID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(rec), nil
}

func (s *MemoryStore) Put(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[rec.PageID]
	if !ok {
		page = make(map[string]*Record)
		s.pages[rec.PageID] = page
	}
	page[rec.ID] = clone(rec)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, pageID, blockID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := s.pages[pageID]
	if _, ok := page[blockID]; !ok {
		return ErrNotFound
	}
	delete(page, blockID)
	if len(page) == 0 {
		delete(s.pages, pageID)
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, pageID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]*Record, 0, len(s.pages[pageID]))
	for _, rec := range s.pages[pageID] {
		recs = append(recs, clone(rec))
	}
	sortRecords(recs)
	return recs, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
