package models

import "time"

// Decision is the verification engine's output classification.
type Decision string

const (
	DecisionAuthentic Decision = "AUTHENTIC"
	DecisionSuspect   Decision = "SUSPECT"
	DecisionRejected  Decision = "REJECTED"
)

// RegistryRecord is a known, legitimately issued certificate as stored in the
// registry. PrimaryID is the canonical registration/roll/USN identifier; the
// same value may live under more than one column in older registry schemas.
type RegistryRecord struct {
	// Core identity
	PrimaryID  string // Canonical registration number, unique across the store
	AltID      string // Roll/serial/USN from the newer schema column, often equal to PrimaryID
	HolderName string // Full name of the certificate holder

	// Certificate details
	Institution string // Issuing institution
	Degree      string // Program/degree title
	Year        int    // Year of completion/issuance

	// Extended schema fields (optional, present for newer imports)
	GuardianName string // Father's/mother's name where the source data has it
	IssueDate    string // Free-form issue date as printed on the certificate
	RecordType   string // e.g. "Degree Certificate", "Grade Card"
	Notes        string // Free-text annotation (import provenance etc.)
}

// IdentifierKind tags which extraction rule produced a candidate.
type IdentifierKind string

const (
	KindLabeled     IdentifierKind = "labeled"      // Token anchored to an explicit label
	KindCodeShaped  IdentifierKind = "code_shaped"  // Matches a known institutional code shape
	KindNumericOnly IdentifierKind = "numeric_only" // Bare digits of plausible length
)

// IdentifierCandidate is one possible registration number found in OCR text.
type IdentifierCandidate struct {
	RawText    string         `json:"raw_text"`
	Normalized string         `json:"normalized"`
	Kind       IdentifierKind `json:"kind"`
	Position   int            `json:"position"` // Byte offset in the source text
	Priority   int            `json:"priority"` // Higher wins across kinds
}

// ExtractedFields holds the structured fields parsed out of raw OCR text.
// Any field may be empty when no anchor for it was found.
type ExtractedFields struct {
	Name         string `json:"name,omitempty"`
	GuardianName string `json:"guardian_name,omitempty"`
	Institution  string `json:"institution,omitempty"`
	Degree       string `json:"degree,omitempty"`
	Year         int    `json:"year,omitempty"`
	RawText      string `json:"raw_text"` // Full OCR text, kept for audit display
}

// FieldScore is the fuzzy similarity between one extracted field and its
// registry counterpart.
type FieldScore struct {
	Field      string  `json:"field"`
	Extracted  string  `json:"extracted,omitempty"`
	Expected   string  `json:"expected,omitempty"`
	Similarity float64 `json:"similarity"` // In [0,1]; 1.0 is exact after normalization
}

// SealVerdict is the external seal classifier's judgment over the stamp/seal
// image region. It is consumed only by the decision composition policy.
type SealVerdict struct {
	Status     string  `json:"status"`      // "Pass" or "Fail"
	SealStatus string  `json:"seal_status"` // "Real" or "Fake"
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// Fake reports whether the classifier called the seal forged at or above the
// given confidence floor.
func (v *SealVerdict) Fake(confidenceFloor float64) bool {
	return v.SealStatus == "Fake" && v.Confidence >= confidenceFloor
}

// Genuine reports whether the classifier passed the seal as real.
func (v *SealVerdict) Genuine() bool {
	return v.Status == "Pass" && v.SealStatus == "Real"
}

// VerificationResult is the full outcome of one verification request.
type VerificationResult struct {
	Decision       Decision              `json:"decision"`
	FinalScore     float64               `json:"final_score"`
	RegistrationNo string                `json:"registration_no,omitempty"`
	DBRecord       *RegistryRecord       `json:"db_record,omitempty"`
	Extracted      ExtractedFields       `json:"extracted_fields"`
	FieldScores    map[string]FieldScore `json:"field_scores"`
	Reasons        []string              `json:"reasons"`
	SealVerdict    *SealVerdict          `json:"seal_verdict,omitempty"`
}

// Report wraps a VerificationResult with export metadata. Metadata lives here
// and not on the result itself so that scoring stays clock-free.
type Report struct {
	ReportID  string             `json:"report_id"`
	Timestamp time.Time          `json:"timestamp"`
	FileName  string             `json:"file_name,omitempty"`
	Result    VerificationResult `json:"verification_result"`
	Summary   ReportSummary      `json:"summary"`
}

// ReportSummary is the flat block the original report format leads with.
type ReportSummary struct {
	Decision        Decision `json:"decision"`
	ConfidenceScore float64  `json:"confidence_score"`
	RegistrationNo  string   `json:"registration_number,omitempty"`
	DatabaseMatch   bool     `json:"database_match"`
}
