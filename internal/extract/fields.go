package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"certverify/pkg/models"
)

// Anchor phrases for the label-driven field parse. OCR output mangles
// punctuation and casing, so matching is case-insensitive and tolerant of
// stray characters between words.
var (
	nameLabelRe     = regexp.MustCompile(`(?im)^.*name\s+of\s+the\s+student\s*[:\-]\s*(.+)$`)
	guardianLabelRe = regexp.MustCompile(`(?im)^.*(?:father|mother)[^:\n]*name\s*[:\-]\s*(.+)$`)
	certifyRe       = regexp.MustCompile(`(?i)(?:this\s+is\s+to\s+certify\s+that|this\s+certifies\s+that|certif(?:y|ies)\s+that)`)
	completionRe    = regexp.MustCompile(`(?i)has\s+(?:successfully\s+)?completed(?:\s+the)?(?:\s+(?:program|course|degree))?`)
	collegeLabelRe  = regexp.MustCompile(`(?im)^.*name\s+of\s+the\s+college\s*[:\-]\s*(.+)$`)
	fromLineRe      = regexp.MustCompile(`(?im)^\s*from\s*$|(?i)\bfrom\b`)
	labeledYearRe   = regexp.MustCompile(`(?i)(?:in\s+the\s+year|year)\s*[:\-]?\s*([0-9]{4})`)
	bareYearRe      = regexp.MustCompile(`\b(19[5-9][0-9]|20[0-9][0-9])\b`)
	uppercaseLineRe = regexp.MustCompile(`^[A-Z][A-Z .'\-]+$`)
)

// institutionKeywords mark a phrase as institution-shaped.
var institutionKeywords = []string{
	"institute", "university", "college", "academy", "school", "polytechnic",
}

// Fields parses raw OCR text into structured certificate fields using
// label-anchored heuristics. Every field is best-effort: a field with no
// anchor in the text comes back zero-valued, which downstream scoring treats
// as similarity 0 rather than a failure.
func Fields(rawText string) models.ExtractedFields {
	fields := models.ExtractedFields{RawText: rawText}
	if strings.TrimSpace(rawText) == "" {
		return fields
	}

	lines := splitLines(rawText)

	fields.Name = extractName(rawText, lines)
	fields.GuardianName = extractLabeled(guardianLabelRe, rawText)
	fields.Institution = extractInstitution(rawText, lines)
	fields.Degree = extractDegree(rawText)
	fields.Year = extractYear(rawText)

	return fields
}

// extractName tries, in order: an explicit student-name label, the block
// following a certifying phrase, and finally the first all-uppercase line of
// plausible name length.
func extractName(rawText string, lines []line) string {
	if name := extractLabeled(nameLabelRe, rawText); name != "" {
		return name
	}

	if loc := certifyRe.FindStringIndex(rawText); loc != nil {
		rest := rawText[loc[1]:]
		if stop := completionRe.FindStringIndex(rest); stop != nil {
			rest = rest[:stop[0]]
		}
		if name := firstContentBlock(rest); name != "" {
			return name
		}
	}

	// Fallback: first uppercase line that looks like a 2-4 word person name.
	for _, l := range lines {
		words := strings.Fields(l.text)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		if uppercaseLineRe.MatchString(l.text) &&
			!containsInstitutionKeyword(l.text) && !containsTitleWord(l.text) {
			return l.text
		}
	}
	return ""
}

// titleWords rule a line out as a document heading rather than a name.
var titleWords = []string{
	"certificate", "completion", "graduation", "grade", "card", "diploma", "india",
}

func containsTitleWord(s string) bool {
	lower := strings.ToLower(s)
	for _, w := range titleWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// extractInstitution looks for a college label line, then for text following
// "from" that carries an institution keyword.
func extractInstitution(rawText string, lines []line) string {
	if inst := extractLabeled(collegeLabelRe, rawText); inst != "" {
		return inst
	}

	for _, loc := range fromLineRe.FindAllStringIndex(rawText, -1) {
		phrase := firstContentBlock(rawText[loc[1]:])
		if phrase != "" && containsInstitutionKeyword(phrase) {
			return phrase
		}
	}

	// Some layouts put the institution on its own keyword-bearing line
	// without any "from" anchor, typically near the top.
	for _, l := range lines {
		if containsInstitutionKeyword(l.text) {
			return l.text
		}
	}
	return ""
}

// extractDegree captures the block between a completion anchor and the next
// "from"/institution anchor.
func extractDegree(rawText string) string {
	loc := completionRe.FindStringIndex(rawText)
	if loc == nil {
		return ""
	}
	rest := rawText[loc[1]:]
	if stop := fromLineRe.FindStringIndex(rest); stop != nil {
		rest = rest[:stop[0]]
	}
	return firstContentBlock(rest)
}

// extractYear prefers a labeled year, then any plausible bare 4-digit year.
// Recovery from a batch code inside the identifier is the caller's fallback
// (YearFromIdentifier) since it needs the resolved identifier.
func extractYear(rawText string) int {
	if m := labeledYearRe.FindStringSubmatch(rawText); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil && yearInRange(year) {
			return year
		}
	}
	for _, m := range bareYearRe.FindAllString(rawText, -1) {
		if year, err := strconv.Atoi(m); err == nil && yearInRange(year) {
			return year
		}
	}
	return 0
}

func yearInRange(year int) bool {
	return year >= 1950 && year <= time.Now().Year()+1
}

func extractLabeled(re *regexp.Regexp, rawText string) string {
	if m := re.FindStringSubmatch(rawText); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

type line struct {
	text string
	pos  int
}

func splitLines(rawText string) []line {
	var out []line
	pos := 0
	for _, raw := range strings.Split(rawText, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			out = append(out, line{text: trimmed, pos: pos})
		}
		pos += len(raw) + 1
	}
	return out
}

// firstContentBlock returns the first non-empty line of the given text, with
// leading punctuation from the anchor stripped. Blocks are how the original
// certificates separate values from their anchor phrases.
func firstContentBlock(text string) string {
	for _, raw := range strings.Split(text, "\n") {
		trimmed := strings.Trim(strings.TrimSpace(raw), ":-,")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func containsInstitutionKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range institutionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
