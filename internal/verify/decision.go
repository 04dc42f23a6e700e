package verify

import (
	"fmt"

	"certverify/internal/match"
	"certverify/pkg/models"
)

// Policy holds the decision thresholds. It is immutable and passed in at
// construction so tests can exercise alternate threshold splits without
// process-wide state.
type Policy struct {
	// AuthenticThreshold is the minimum aggregate score for AUTHENTIC.
	AuthenticThreshold float64

	// SuspectThreshold is the minimum aggregate score for SUSPECT; anything
	// below it with a resolved identifier is REJECTED.
	SuspectThreshold float64

	// FieldMinimum flags individual fields in the reason list when their
	// similarity falls below it.
	FieldMinimum float64

	// SealConfidenceFloor is the classifier confidence at which a "Fake"
	// verdict overrides the text decision outright.
	SealConfidenceFloor float64
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		AuthenticThreshold:  0.80,
		SuspectThreshold:    0.55,
		FieldMinimum:        0.60,
		SealConfidenceFloor: 0.70,
	}
}

// Decide combines lookup success, the aggregate score, and an optional seal
// verdict into the three-way decision with ordered, human-readable reasons.
//
// The fake-seal override sits first, before any text logic: a forged seal is
// stronger negative evidence than strong text similarity, so the composition
// is strictly conjunctive and never averaged.
func (p Policy) Decide(identifierFound bool, scores map[string]models.FieldScore, finalScore float64, seal *models.SealVerdict) (models.Decision, []string) {
	if seal != nil && seal.Fake(p.SealConfidenceFloor) {
		reasons := []string{
			fmt.Sprintf("seal classified as fake with confidence %.2f; overriding text verification", seal.Confidence),
		}
		if seal.Reason != "" {
			reasons = append(reasons, "seal classifier: "+seal.Reason)
		}
		return models.DecisionRejected, reasons
	}

	if !identifierFound {
		return models.DecisionRejected, []string{"no matching registry identifier found"}
	}

	var reasons []string
	decision := models.DecisionRejected

	switch {
	case finalScore >= p.AuthenticThreshold:
		decision = models.DecisionAuthentic
		reasons = append(reasons, fmt.Sprintf("field similarity score %.2f meets authenticity threshold %.2f", finalScore, p.AuthenticThreshold))
	case finalScore >= p.SuspectThreshold:
		decision = models.DecisionSuspect
		reasons = append(reasons, fmt.Sprintf("field similarity score %.2f requires manual review", finalScore))
	default:
		reasons = append(reasons, "field mismatch below acceptable threshold")
	}

	reasons = append(reasons, p.lowFieldReasons(scores)...)

	// Conjunctive seal composition: an unresolved or failed seal check caps
	// an otherwise-authentic text decision.
	if seal != nil && decision == models.DecisionAuthentic && !seal.Genuine() {
		if seal.SealStatus == "Fake" {
			decision = models.DecisionRejected
			reasons = append(reasons, "seal classified as fake; text similarity alone cannot establish authenticity")
		} else {
			decision = models.DecisionSuspect
			reasons = append(reasons, "seal could not be confirmed genuine")
		}
	}

	return decision, reasons
}

// lowFieldReasons enumerates every field scoring below the per-field minimum
// in the fixed field order, so callers can display actionable detail.
func (p Policy) lowFieldReasons(scores map[string]models.FieldScore) []string {
	var reasons []string
	for _, field := range match.ScoredFields {
		score, ok := scores[field]
		if !ok || score.Similarity >= p.FieldMinimum {
			continue
		}
		if score.Extracted == "" {
			reasons = append(reasons, fmt.Sprintf("%s could not be extracted from the certificate text", field))
		} else {
			reasons = append(reasons, fmt.Sprintf("%s similarity %.2f below minimum %.2f (extracted %q, expected %q)",
				field, score.Similarity, p.FieldMinimum, score.Extracted, score.Expected))
		}
	}
	return reasons
}
