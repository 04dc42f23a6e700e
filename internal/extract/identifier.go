// Package extract turns raw OCR text into verification inputs: candidate
// registration identifiers and structured certificate fields.
//
// Everything here is deterministic text processing. OCR output is noisy and
// inconsistently formatted, so extraction is rule-driven and best-effort:
// each rule either finds something or it doesn't, and absence is never an
// error.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"certverify/pkg/models"
)

// identifierRule is one pattern in the ordered extraction table. Adding a new
// label convention or code shape is a table change, not a code change.
type identifierRule struct {
	kind     models.IdentifierKind
	priority int
	re       *regexp.Regexp
}

// identifierRules is evaluated uniformly over the raw text. Label-anchored
// matches rank highest because the surrounding label pins their meaning;
// bare numeric runs rank lowest because they are easily coincidental.
var identifierRules = []identifierRule{
	{
		kind:     models.KindLabeled,
		priority: 3,
		re: regexp.MustCompile(`(?im)\b(?:registration\s*(?:number|no\.?)|reg\.?\s*no\.?|roll\s*no\.?|usn|serial\s*no\.?|registration)\s*[:\-]?\s*([A-Za-z0-9][A-Za-z0-9 ]*[A-Za-z0-9])`),
	},
	{
		// VTU-style USN: digit, campus letters, 2-digit batch, branch letters, serial.
		kind:     models.KindCodeShaped,
		priority: 2,
		re:       regexp.MustCompile(`\b([0-9][A-Za-z]{2,4}[0-9]{2}[A-Za-z]{2,3}[0-9]{3})\b`),
	},
	{
		// Letter-prefix codes such as ABC2023001.
		kind:     models.KindCodeShaped,
		priority: 2,
		re:       regexp.MustCompile(`\b([A-Za-z]{2,5}[0-9]{6,9})\b`),
	},
	{
		kind:     models.KindNumericOnly,
		priority: 1,
		re:       regexp.MustCompile(`\b([0-9]{6,12})\b`),
	},
}

// Candidates scans raw OCR text for possible registration identifiers and
// returns them best-first: higher-priority rule first, earlier position
// breaking ties. Duplicate normalized forms keep only their best occurrence.
// All distinct candidates are returned so the caller can try lookups in order
// and survive a spurious top candidate.
func Candidates(rawText string) []models.IdentifierCandidate {
	if strings.TrimSpace(rawText) == "" {
		return nil
	}

	seen := make(map[string]int) // normalized form -> index into out
	var out []models.IdentifierCandidate

	for _, rule := range identifierRules {
		for _, match := range rule.re.FindAllStringSubmatchIndex(rawText, -1) {
			start, end := match[2], match[3]
			raw := rawText[start:end]
			normalized := normalizeToken(raw)
			if !plausibleIdentifier(normalized, rule.kind) {
				continue
			}

			cand := models.IdentifierCandidate{
				RawText:    raw,
				Normalized: normalized,
				Kind:       rule.kind,
				Position:   start,
				Priority:   rule.priority,
			}

			if idx, dup := seen[normalized]; dup {
				if better(cand, out[idx]) {
					out[idx] = cand
				}
				continue
			}
			seen[normalized] = len(out)
			out = append(out, cand)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return better(out[i], out[j])
	})
	return out
}

func better(a, b models.IdentifierCandidate) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Position < b.Position
}

// plausibleIdentifier filters tokens that match a rule's shape but cannot be
// registration numbers (too short, or a bare 4-digit year).
func plausibleIdentifier(normalized string, kind models.IdentifierKind) bool {
	if len(normalized) < 5 {
		return false
	}
	if kind == models.KindLabeled {
		// A labeled match still needs at least one digit to be an identifier
		// and not a stray word caught after the label.
		hasDigit := false
		for _, r := range normalized {
			if r >= '0' && r <= '9' {
				hasDigit = true
				break
			}
		}
		return hasDigit
	}
	return true
}

// normalizeToken uppercases and strips all whitespace, matching the registry
// store's comparison rule.
func normalizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// YearFromIdentifier recovers a plausible certificate year embedded in an
// identifier. A literal 4-digit year wins (ABC2023001 -> 2023); failing that,
// a USN-shaped 2-digit batch code is expanded (1BG19CS100 -> 2019). This is a
// best-effort, institution-specific fallback, not a general decoding rule.
func YearFromIdentifier(identifier string) int {
	normalized := normalizeToken(identifier)

	if m := literalYearRe.FindString(normalized); m != "" {
		year, _ := strconv.Atoi(m)
		if yearPlausible(year) {
			return year
		}
	}

	if m := usnShapeRe.FindStringSubmatch(normalized); m != nil {
		yy, _ := strconv.Atoi(m[1])
		year := 2000 + yy
		if yearPlausible(year) {
			return year
		}
	}
	return 0
}

var (
	literalYearRe = regexp.MustCompile(`(19[5-9][0-9]|20[0-9][0-9])`)
	usnShapeRe    = regexp.MustCompile(`^[0-9][A-Z]{2,4}([0-9]{2})[A-Z]{2,3}[0-9]{3}$`)
)

func yearPlausible(year int) bool {
	return year >= 1950 && year <= time.Now().Year()+1
}
