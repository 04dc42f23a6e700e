package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"certverify/internal/logger"
	"certverify/pkg/models"
)

// headerAliases maps canonical import fields to the header spellings seen in
// source spreadsheets. Header matching is case-insensitive and ignores
// punctuation, so "Father's Name" and "father_name" both land on guardian.
var headerAliases = map[string][]string{
	"id":          {"serial no", "reg no", "registration number", "usn", "roll no", "id"},
	"name":        {"sons name", "student name", "name", "holder name"},
	"guardian":    {"fathers name", "mothers name", "guardian name", "father name"},
	"institution": {"institution", "college", "name of the college"},
	"degree":      {"degree", "program", "course"},
	"year":        {"year", "graduation year"},
	"issue_date":  {"assigned date", "issue date", "date of issue"},
	"type":        {"certificate type", "record type", "type"},
	"notes":       {"notes", "remarks"},
}

// ImportDefaults supplies values for columns the source file does not carry.
// The original registry feeds were per-institution exports that only listed
// students, so institution and degree arrive as constants.
type ImportDefaults struct {
	Institution string
	Degree      string
	RecordType  string
	Notes       string
}

// ImportSummary reports the outcome of a bulk import.
type ImportSummary struct {
	Imported int
	Skipped  int
}

// Importer loads CSV exports into the registry store.
type Importer struct {
	store Store
	log   zerolog.Logger
}

// NewImporter creates a CSV importer writing to the given store.
func NewImporter(store Store) *Importer {
	return &Importer{
		store: store,
		log:   logger.WithComponent("registry-import"),
	}
}

// Import reads CSV data and upserts one record per row. Rows that cannot be
// mapped are logged and skipped; the import continues. Upserts are per-record
// atomic, so concurrent verification readers never see a half-written row.
func (im *Importer) Import(ctx context.Context, r io.Reader, defaults ImportDefaults) (*ImportSummary, error) {
	const op = "Import"

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read header: %w", op, err)
	}

	columns := mapHeader(header)
	if _, ok := columns["id"]; !ok {
		return nil, fmt.Errorf("%s: no identifier column found in header %v", op, header)
	}
	if _, ok := columns["name"]; !ok {
		return nil, fmt.Errorf("%s: no name column found in header %v", op, header)
	}

	summary := &ImportSummary{}
	rowNum := 1
	for {
		rowNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			im.log.Warn().Int("row", rowNum).Err(err).Msg("Skipping malformed CSV row")
			summary.Skipped++
			continue
		}

		rec, err := buildRecord(row, columns, defaults)
		if err != nil {
			im.log.Warn().Int("row", rowNum).Err(err).Msg("Skipping unmappable row")
			summary.Skipped++
			continue
		}

		if err := im.store.Upsert(ctx, *rec); err != nil {
			im.log.Warn().Int("row", rowNum).Str("id", rec.PrimaryID).Err(err).Msg("Upsert failed, skipping row")
			summary.Skipped++
			continue
		}
		summary.Imported++
	}

	im.log.Info().
		Int("imported", summary.Imported).
		Int("skipped", summary.Skipped).
		Msg("Registry import completed")
	return summary, nil
}

// mapHeader resolves each canonical field to its column index.
func mapHeader(header []string) map[string]int {
	columns := make(map[string]int)
	for i, h := range header {
		key := canonicalHeader(h)
		for field, aliases := range headerAliases {
			if _, taken := columns[field]; taken {
				continue
			}
			for _, alias := range aliases {
				if key == canonicalHeader(alias) {
					columns[field] = i
				}
			}
		}
	}
	return columns
}

// canonicalHeader lowercases and strips punctuation for alias comparison.
func canonicalHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func buildRecord(row []string, columns map[string]int, defaults ImportDefaults) (*models.RegistryRecord, error) {
	cell := func(field string) string {
		idx, ok := columns[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	id := cell("id")
	if id == "" {
		return nil, fmt.Errorf("empty identifier")
	}
	name := cell("name")
	if name == "" {
		return nil, fmt.Errorf("empty holder name")
	}

	rec := &models.RegistryRecord{
		PrimaryID:    id,
		AltID:        id,
		HolderName:   name,
		GuardianName: cell("guardian"),
		Institution:  firstNonEmpty(cell("institution"), defaults.Institution),
		Degree:       firstNonEmpty(cell("degree"), defaults.Degree),
		IssueDate:    cell("issue_date"),
		RecordType:   firstNonEmpty(cell("type"), defaults.RecordType),
		Notes:        firstNonEmpty(cell("notes"), defaults.Notes),
	}

	rec.Year = resolveYear(cell("year"), rec.IssueDate, id)
	return rec, nil
}

// resolveYear picks the certificate year from, in order: an explicit year
// column, the issue date, or the 2-digit batch code embedded in USN-style
// identifiers (1BG19CS100 -> batch 2019, graduation 2023).
func resolveYear(yearCell, issueDate, id string) int {
	if y, err := strconv.Atoi(yearCell); err == nil && y > 1950 {
		return y
	}
	if issueDate != "" {
		for _, layout := range []string{"2 January 2006", "02.01.2006", "2006-01-02", "January 2006"} {
			if t, err := time.Parse(layout, issueDate); err == nil {
				return t.Year()
			}
		}
	}
	if batch := batchYearFromID(id); batch > 0 {
		// Four-year program assumption for batch-coded identifiers.
		return batch + 4
	}
	return 0
}

// batchYearFromID extracts a 2-digit batch year from identifiers shaped like
// 1BG19CS100 (two digits after a digit+letters prefix). Best-effort only.
func batchYearFromID(id string) int {
	normalized := NormalizeID(id)
	if len(normalized) < 5 {
		return 0
	}
	// Shape: digit, letters, 2-digit year, letters, digits.
	if normalized[0] < '0' || normalized[0] > '9' {
		return 0
	}
	i := 1
	for i < len(normalized) && normalized[i] >= 'A' && normalized[i] <= 'Z' {
		i++
	}
	if i == 1 || i+2 > len(normalized) {
		return 0
	}
	yy, err := strconv.Atoi(normalized[i : i+2])
	if err != nil {
		return 0
	}
	return 2000 + yy
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
