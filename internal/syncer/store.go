// Package syncer implements the client-side synchronization engine: an
// explicit cache store keyed by query groups, and a coordinator that keeps
// detail, list and summary views of monthly tax records consistent after
// writes and externally pushed updates, refetching one group at a time.
package syncer

import (
	"sync"

	"taxtrack/internal/model"
	"taxtrack/internal/service"
)

// ListEntry is one cached list view.
type ListEntry struct {
	Records []service.TaxRecordResponse
	Total   int64
}

// Store is the only shared mutable resource of the sync engine. All writes go
// through the Coordinator's patch/invalidate/refetch sequence; views read
// snapshots and never mutate entries in place.
type Store struct {
	mu        sync.RWMutex
	details   map[model.RecordKey]service.TaxRecordResponse
	lists     map[string]ListEntry
	summaries map[string]service.SummaryResponse
}

func NewStore() *Store {
	return &Store{
		details:   make(map[model.RecordKey]service.TaxRecordResponse),
		lists:     make(map[string]ListEntry),
		summaries: make(map[string]service.SummaryResponse),
	}
}

// Detail returns the cached detail view for key.
func (s *Store) Detail(key model.RecordKey) (service.TaxRecordResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.details[key]
	return rec, ok
}

// List returns the cached list entry for a group id.
func (s *Store) List(groupID string) (ListEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.lists[groupID]
	return entry, ok
}

// Summary returns the cached summary for a group id.
func (s *Store) Summary(groupID string) (service.SummaryResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.summaries[groupID]
	return sum, ok
}

func (s *Store) setDetail(rec service.TaxRecordResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[rec.Key()] = rec
}

func (s *Store) setList(groupID string, entry ListEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[groupID] = entry
}

func (s *Store) setSummary(groupID string, sum service.SummaryResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[groupID] = sum
}

func (s *Store) invalidateDetail(key model.RecordKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.details, key)
}

// patchRecord synchronously replaces the record in the detail cache and in
// every already-resident list entry carrying the same id. Non-resident
// entries are not populated here; the refetch sequence fills them.
func (s *Store) patchRecord(rec service.TaxRecordResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.details[rec.Key()] = rec

	for groupID, entry := range s.lists {
		patched := false
		for i := range entry.Records {
			if entry.Records[i].ID == rec.ID {
				entry.Records[i] = rec
				patched = true
			}
		}
		if patched {
			s.lists[groupID] = entry
		}
	}
}
