// Package registry provides access to the store of known, legitimately
// issued certificates that OCR output is verified against.
//
// The backing table has survived several schema evolutions: older imports
// keyed records by a "registration number" column while newer ones carry a
// separate roll/serial (USN) column. Lookups transparently check both, so a
// candidate identifier matching either column counts as a hit. Identifiers
// are compared uppercase with all internal whitespace removed.
package registry

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"certverify/pkg/models"
)

// ErrStoreUnavailable is returned when the backing store does not exist or
// cannot be opened. This is a fatal configuration error and is deliberately
// distinct from a not-found lookup, so callers can tell "certificate is not
// in the registry" apart from "the system is misconfigured".
var ErrStoreUnavailable = errors.New("registry store unavailable")

// Store is the read/write interface over the certificate registry.
// The verification path only reads; writes happen through bulk import.
type Store interface {
	// LookupByID resolves a candidate identifier to at most one record.
	// Returns (nil, nil) when no record matches; that is not an error.
	LookupByID(ctx context.Context, identifier string) (*models.RegistryRecord, error)

	// LookupByPattern returns records whose identifier starts with the given
	// prefix. Diagnostics only; not part of the verification path.
	LookupByPattern(ctx context.Context, prefix string) ([]models.RegistryRecord, error)

	// Upsert inserts the record or replaces the existing one with the same
	// primary identifier.
	Upsert(ctx context.Context, rec models.RegistryRecord) error

	// Count returns the number of records in the store.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying handle.
	Close() error
}

// NormalizeID canonicalizes an identifier for comparison: uppercase with all
// internal whitespace stripped. "abc 2023 001" and "ABC2023001" compare equal.
func NormalizeID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
