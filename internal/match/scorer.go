package match

import (
	"strconv"

	"github.com/rs/zerolog"

	"certverify/internal/logger"
	"certverify/pkg/models"
)

// Canonical field names used in FieldScore maps and reasons.
const (
	FieldName        = "name"
	FieldInstitution = "institution"
	FieldDegree      = "degree"
	FieldYear        = "year"
)

// ScoredFields is the fixed scoring order. Keeping it explicit makes reason
// lists and logs reproducible across runs.
var ScoredFields = []string{FieldName, FieldInstitution, FieldDegree, FieldYear}

// Weights is the immutable scoring policy. Name and institution carry the
// most weight: they are the least likely to be coincidentally right. The
// split is policy, not structure; tests exercise alternates.
type Weights struct {
	Name        float64
	Institution float64
	Degree      float64
	Year        float64
}

// DefaultWeights returns the production weight split. Weights sum to 1.
func DefaultWeights() Weights {
	return Weights{
		Name:        0.35,
		Institution: 0.30,
		Degree:      0.20,
		Year:        0.15,
	}
}

func (w Weights) of(field string) float64 {
	switch field {
	case FieldName:
		return w.Name
	case FieldInstitution:
		return w.Institution
	case FieldDegree:
		return w.Degree
	case FieldYear:
		return w.Year
	}
	return 0
}

// Scorer compares extracted fields against a registry record.
type Scorer struct {
	weights Weights
	log     zerolog.Logger
}

// NewScorer creates a scorer with the given weight policy.
func NewScorer(weights Weights) *Scorer {
	return &Scorer{
		weights: weights,
		log:     logger.WithComponent("scorer"),
	}
}

// Score produces a per-field similarity map and the weighted aggregate
// confidence. With no record there is no basis for comparison: every field
// scores 0 and the aggregate is 0. A missing extracted field scores 0 for
// that field only; the rest still count.
func (s *Scorer) Score(extracted models.ExtractedFields, record *models.RegistryRecord) (map[string]models.FieldScore, float64) {
	scores := make(map[string]models.FieldScore, len(ScoredFields))

	if record == nil {
		for _, field := range ScoredFields {
			scores[field] = models.FieldScore{Field: field, Similarity: 0}
		}
		return scores, 0
	}

	scores[FieldName] = textScore(FieldName, extracted.Name, record.HolderName)
	scores[FieldInstitution] = textScore(FieldInstitution, extracted.Institution, record.Institution)
	scores[FieldDegree] = textScore(FieldDegree, extracted.Degree, record.Degree)
	scores[FieldYear] = yearScore(extracted.Year, record.Year)

	var final float64
	for _, field := range ScoredFields {
		final += s.weights.of(field) * scores[field].Similarity
	}

	s.log.Debug().
		Float64(FieldName, scores[FieldName].Similarity).
		Float64(FieldInstitution, scores[FieldInstitution].Similarity).
		Float64(FieldDegree, scores[FieldDegree].Similarity).
		Float64(FieldYear, scores[FieldYear].Similarity).
		Float64("final", final).
		Msg("Field scoring completed")

	return scores, final
}

func textScore(field, extracted, expected string) models.FieldScore {
	return models.FieldScore{
		Field:      field,
		Extracted:  extracted,
		Expected:   expected,
		Similarity: Similarity(extracted, expected),
	}
}

// yearScore gives full credit on an exact match and half credit within one
// year, tolerating OCR digit misreads and graduation-vs-issue ambiguity.
func yearScore(extracted, expected int) models.FieldScore {
	score := models.FieldScore{Field: FieldYear}
	if extracted > 0 {
		score.Extracted = strconv.Itoa(extracted)
	}
	if expected > 0 {
		score.Expected = strconv.Itoa(expected)
	}
	if extracted == 0 || expected == 0 {
		return score
	}

	diff := extracted - expected
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		score.Similarity = 1.0
	case 1:
		score.Similarity = 0.5
	}
	return score
}
