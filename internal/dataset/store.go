// Package dataset holds uploaded booking tables for the duration of a
// browsing session. Tables are snapshots: once stored they are never mutated,
// so every report request can read the same slice without copying row data.
package dataset

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"studiostats/internal/core"
)

// Meta describes a stored dataset for the selector widgets.
type Meta struct {
	ID         string         `json:"dataset_id"`
	UploadedAt time.Time      `json:"uploaded_at"`
	RowCount   int            `json:"row_count"`
	Periods    []string       `json:"periods"`
	Students   []core.Student `json:"students"`
}

type entry struct {
	rows      []core.Booking
	meta      Meta
	expiresAt time.Time
}

// Store is an in-memory session store with TTL expiry and a session cap.
// It satisfies the cache package's Cleaner interface so the shared cleanup
// manager drives expiry.
type Store struct {
	mu       sync.RWMutex
	ttl      time.Duration
	maxItems int
	items    map[string]*entry
}

// NewStore creates a store expiring datasets after ttl and refusing to hold
// more than maxItems at once (oldest evicted first).
func NewStore(ttl time.Duration, maxItems int) *Store {
	return &Store{
		ttl:      ttl,
		maxItems: maxItems,
		items:    make(map[string]*entry),
	}
}

// Put stores a parsed table and returns its metadata, including the generated
// dataset id.
func (s *Store) Put(rows []core.Booking) Meta {
	now := time.Now()
	meta := Meta{
		ID:         newID(),
		UploadedAt: now,
		RowCount:   len(rows),
		Students:   core.Students(rows),
	}
	for _, p := range core.Periods(rows) {
		meta.Periods = append(meta.Periods, p.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) >= s.maxItems {
		s.evictOldestLocked()
	}
	s.items[meta.ID] = &entry{
		rows:      rows,
		meta:      meta,
		expiresAt: now.Add(s.ttl),
	}
	return meta
}

// Rows returns the stored table for id. The returned slice must be treated as
// read-only.
func (s *Store) Rows(id string) ([]core.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.rows, true
}

// Get returns the metadata for id.
func (s *Store) Get(id string) (Meta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok || time.Now().After(e.expiresAt) {
		return Meta{}, false
	}
	return e.meta, true
}

// Delete removes a dataset.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// Size returns the number of live datasets.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// CleanExpired removes expired datasets and reports how many were dropped.
func (s *Store) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, e := range s.items {
		if now.After(e.expiresAt) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range s.items {
		if oldestID == "" || e.meta.UploadedAt.Before(oldest) {
			oldestID = id
			oldest = e.meta.UploadedAt
		}
	}
	if oldestID != "" {
		delete(s.items, oldestID)
	}
}

func newID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("ds_%d", time.Now().UnixNano())
	}
	return "ds_" + hex.EncodeToString(b)
}
