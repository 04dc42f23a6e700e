package registry

import (
	"context"
	"strings"
	"sync"

	"certverify/pkg/models"
)

// MemoryStore is an in-memory Store used by tests and demo runs. It mirrors
// the SQLite behaviour: lookups check both identifier columns after
// normalization.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]models.RegistryRecord // keyed by normalized primary ID
	byAltID map[string]string                // normalized alt ID -> normalized primary ID
}

// NewMemoryStore creates an empty in-memory registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]models.RegistryRecord),
		byAltID: make(map[string]string),
	}
}

// LookupByID checks the primary identifier first, then the alternate column.
func (m *MemoryStore) LookupByID(_ context.Context, identifier string) (*models.RegistryRecord, error) {
	normalized := NormalizeID(identifier)
	if normalized == "" {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if rec, ok := m.byID[normalized]; ok {
		return &rec, nil
	}
	if primary, ok := m.byAltID[normalized]; ok {
		if rec, ok := m.byID[primary]; ok {
			return &rec, nil
		}
	}
	return nil, nil
}

// LookupByPattern returns records whose normalized identifier has the prefix.
func (m *MemoryStore) LookupByPattern(_ context.Context, prefix string) ([]models.RegistryRecord, error) {
	normalized := NormalizeID(prefix)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []models.RegistryRecord
	for id, rec := range m.byID {
		if strings.HasPrefix(id, normalized) {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Upsert inserts or replaces the record keyed by normalized primary ID.
func (m *MemoryStore) Upsert(_ context.Context, rec models.RegistryRecord) error {
	primary := NormalizeID(rec.PrimaryID)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.byID[primary] = rec
	if alt := NormalizeID(rec.AltID); alt != "" && alt != primary {
		m.byAltID[alt] = primary
	}
	return nil
}

// Count returns the number of records.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID), nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
