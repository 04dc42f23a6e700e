// Package verify implements the certificate verification engine: candidate
// identifier extraction, registry lookup, field scoring, and the final
// three-way decision.
//
// A verification request is one synchronous call chain over read-only state.
// Scoring is pure text processing with no clock or randomness, so a fixed
// input against an unchanged registry always produces an identical result;
// timestamps and report IDs belong to report metadata only.
package verify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"certverify/internal/extract"
	"certverify/internal/logger"
	"certverify/internal/match"
	"certverify/internal/ocr"
	"certverify/internal/registry"
	"certverify/pkg/models"
)

// Verifier runs the full verification pipeline against a registry store.
type Verifier struct {
	store  registry.Store
	scorer *match.Scorer
	policy Policy
	log    zerolog.Logger
}

// NewVerifier creates a verifier over the given store with the given
// policies. The store is read-only for the lifetime of the verifier and safe
// for concurrent verification calls.
func NewVerifier(store registry.Store, weights match.Weights, policy Policy) *Verifier {
	return &Verifier{
		store:  store,
		scorer: match.NewScorer(weights),
		policy: policy,
		log:    logger.WithComponent("verifier"),
	}
}

// Verify checks one OCR result against the registry and returns the decision
// with full supporting detail. A failed or empty OCR result is the soft
// failure path: it degrades to "no candidates, no fields" and a REJECTED
// decision, never an error. A non-nil error only means the registry store
// itself failed.
func (v *Verifier) Verify(ctx context.Context, ocrResult *ocr.Result, seal *models.SealVerdict) (*models.VerificationResult, error) {
	rawText := ""
	if ocrResult != nil && ocrResult.Success {
		rawText = ocrResult.Text
	}

	candidates := extract.Candidates(rawText)
	v.log.Debug().Int("candidates", len(candidates)).Msg("Identifier extraction completed")

	chosen, record, err := v.resolve(ctx, candidates)
	if err != nil {
		return nil, err
	}

	fields := extract.Fields(rawText)
	if fields.Year == 0 && chosen != "" {
		// Best-effort recovery of a batch year encoded in the identifier.
		fields.Year = extract.YearFromIdentifier(chosen)
	}

	scores, finalScore := v.scorer.Score(fields, record)
	decision, reasons := v.policy.Decide(record != nil, scores, finalScore, seal)

	if strings.TrimSpace(rawText) == "" {
		reasons = append(reasons, "no readable text extracted from the certificate image")
	}
	reasons = append(reasons, v.guardianReasons(fields, record)...)

	result := &models.VerificationResult{
		Decision:       decision,
		FinalScore:     finalScore,
		RegistrationNo: chosen,
		DBRecord:       record,
		Extracted:      fields,
		FieldScores:    scores,
		Reasons:        reasons,
		SealVerdict:    seal,
	}

	v.log.Info().
		Str("decision", string(decision)).
		Float64("final_score", finalScore).
		Str("registration_no", chosen).
		Bool("db_match", record != nil).
		Msg("Verification completed")

	return result, nil
}

// resolve tries candidates best-first against the store and stops at the
// first hit. Exhausting all candidates without a hit is a legitimate
// "no database match" outcome, not an error.
func (v *Verifier) resolve(ctx context.Context, candidates []models.IdentifierCandidate) (string, *models.RegistryRecord, error) {
	for _, cand := range candidates {
		record, err := v.store.LookupByID(ctx, cand.Normalized)
		if err != nil {
			return "", nil, err
		}
		if record != nil {
			v.log.Debug().
				Str("identifier", cand.Normalized).
				Str("kind", string(cand.Kind)).
				Msg("Identifier resolved against registry")
			return cand.Normalized, record, nil
		}
	}
	return "", nil, nil
}

// guardianReasons adds an advisory note when the extended-schema guardian
// name is present on both sides but clearly differs. Guardian similarity is
// never part of the aggregate score.
func (v *Verifier) guardianReasons(fields models.ExtractedFields, record *models.RegistryRecord) []string {
	if record == nil || record.GuardianName == "" || fields.GuardianName == "" {
		return nil
	}
	if match.Similarity(fields.GuardianName, record.GuardianName) < v.policy.FieldMinimum {
		return []string{"guardian name on certificate does not match registry record"}
	}
	return nil
}
