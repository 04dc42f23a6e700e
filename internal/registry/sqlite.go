package registry

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"certverify/internal/logger"
	"certverify/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS certificates (
	reg_no TEXT PRIMARY KEY,
	usn TEXT,
	name TEXT NOT NULL,
	father_name TEXT,
	institution TEXT,
	degree TEXT,
	year INTEGER,
	assigned_date TEXT,
	certificate_type TEXT,
	notes TEXT
);
CREATE INDEX IF NOT EXISTS idx_certificates_usn ON certificates(usn);
`

// lookupColumns are the identifier columns tried in order when resolving a
// candidate. New schema variants are added here, not in the lookup code.
var lookupColumns = []string{"reg_no", "usn"}

// SQLiteStore implements Store over a SQLite certificates table.
type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// OpenSQLite opens the registry at the given path. When create is false and
// the file does not exist, ErrStoreUnavailable is returned so a missing
// database surfaces once, at startup, instead of as per-call lookup misses.
func OpenSQLite(path string, create bool) (*SQLiteStore, error) {
	const op = "OpenSQLite"

	if !create {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s: %w: %s", op, ErrStoreUnavailable, path)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to apply schema: %w", op, err)
	}

	return &SQLiteStore{
		db:  db,
		log: logger.WithComponent("registry"),
	}, nil
}

const recordColumns = "reg_no, usn, name, father_name, institution, degree, year, assigned_date, certificate_type, notes"

// LookupByID tries each identifier column in order with normalized comparison.
func (s *SQLiteStore) LookupByID(ctx context.Context, identifier string) (*models.RegistryRecord, error) {
	normalized := NormalizeID(identifier)
	if normalized == "" {
		return nil, nil
	}

	for _, column := range lookupColumns {
		// Normalization is mirrored on the SQL side so records imported
		// with embedded spaces or lowercase identifiers still resolve.
		query := fmt.Sprintf(
			"SELECT %s FROM certificates WHERE REPLACE(UPPER(%s), ' ', '') = ? LIMIT 1",
			recordColumns, column)

		rec, err := scanRecord(s.db.QueryRowContext(ctx, query, normalized))
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("registry: lookup by %s failed: %w", column, err)
		}

		s.log.Debug().
			Str("identifier", normalized).
			Str("column", column).
			Str("holder", rec.HolderName).
			Msg("Registry hit")
		return rec, nil
	}

	return nil, nil
}

// LookupByPattern returns records whose registration number or USN starts
// with the given prefix.
func (s *SQLiteStore) LookupByPattern(ctx context.Context, prefix string) ([]models.RegistryRecord, error) {
	pattern := NormalizeID(prefix) + "%"
	query := fmt.Sprintf(
		"SELECT %s FROM certificates WHERE REPLACE(UPPER(reg_no), ' ', '') LIKE ? OR REPLACE(UPPER(usn), ' ', '') LIKE ? ORDER BY reg_no",
		recordColumns)

	rows, err := s.db.QueryContext(ctx, query, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("registry: pattern lookup failed: %w", err)
	}
	defer rows.Close()

	var records []models.RegistryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("registry: pattern scan failed: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Upsert inserts or replaces the record keyed by primary identifier.
// Per-record atomicity is enough here: verification readers never observe a
// partially written row.
func (s *SQLiteStore) Upsert(ctx context.Context, rec models.RegistryRecord) error {
	altID := rec.AltID
	if altID == "" {
		altID = rec.PrimaryID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO certificates (reg_no, usn, name, father_name, institution, degree, year, assigned_date, certificate_type, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(reg_no) DO UPDATE SET
			usn = excluded.usn,
			name = excluded.name,
			father_name = excluded.father_name,
			institution = excluded.institution,
			degree = excluded.degree,
			year = excluded.year,
			assigned_date = excluded.assigned_date,
			certificate_type = excluded.certificate_type,
			notes = excluded.notes`,
		rec.PrimaryID, altID, rec.HolderName, rec.GuardianName,
		rec.Institution, rec.Degree, rec.Year, rec.IssueDate, rec.RecordType, rec.Notes)
	if err != nil {
		return fmt.Errorf("registry: upsert %s failed: %w", rec.PrimaryID, err)
	}
	return nil
}

// Count returns the number of certificate records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM certificates").Scan(&count); err != nil {
		return 0, fmt.Errorf("registry: count failed: %w", err)
	}
	return count, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.RegistryRecord, error) {
	var rec models.RegistryRecord
	var usn, father, institution, degree, assigned, certType, notes sql.NullString
	var year sql.NullInt64

	err := row.Scan(&rec.PrimaryID, &usn, &rec.HolderName, &father,
		&institution, &degree, &year, &assigned, &certType, &notes)
	if err != nil {
		return nil, err
	}

	rec.AltID = usn.String
	rec.GuardianName = father.String
	rec.Institution = institution.String
	rec.Degree = degree.String
	rec.Year = int(year.Int64)
	rec.IssueDate = assigned.String
	rec.RecordType = certType.String
	rec.Notes = notes.String
	return &rec, nil
}
