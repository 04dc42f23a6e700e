package verify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certverify/internal/match"
	"certverify/internal/ocr"
	"certverify/internal/registry"
	"certverify/pkg/models"
)

const sampleCertText = `CERTIFICATE OF COMPLETION

This is to certify that

SAKSHAM SHARMA

has successfully completed the course

B.Tech Computer Engineering

from

DevLabs Institute

in the year 2023

Registration Number: ABC2023001

Date of Issue: December 2023`

func sampleRecord() models.RegistryRecord {
	return models.RegistryRecord{
		PrimaryID:   "ABC2023001",
		HolderName:  "SAKSHAM SHARMA",
		Institution: "DevLabs Institute",
		Degree:      "B.Tech Computer Engineering",
		Year:        2023,
	}
}

func newTestVerifier(t *testing.T, records ...models.RegistryRecord) *Verifier {
	t.Helper()

	store := registry.NewMemoryStore()
	for _, rec := range records {
		require.NoError(t, store.Upsert(context.Background(), rec))
	}
	return NewVerifier(store, match.DefaultWeights(), DefaultPolicy())
}

func ocrResult(text string) *ocr.Result {
	return &ocr.Result{Success: true, Text: text, Confidence: 0.9}
}

func TestVerifyExactMatchIsAuthentic(t *testing.T) {
	v := newTestVerifier(t, sampleRecord())

	result, err := v.Verify(context.Background(), ocrResult(sampleCertText), nil)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionAuthentic, result.Decision)
	assert.GreaterOrEqual(t, result.FinalScore, 0.80)
	assert.Equal(t, "ABC2023001", result.RegistrationNo)
	require.NotNil(t, result.DBRecord)
	assert.Equal(t, "SAKSHAM SHARMA", result.DBRecord.HolderName)
	assert.Equal(t, "SAKSHAM SHARMA", result.Extracted.Name)
	assert.NotEmpty(t, result.Reasons)
}

func TestVerifyIsDeterministic(t *testing.T) {
	v := newTestVerifier(t, sampleRecord())

	first, err := v.Verify(context.Background(), ocrResult(sampleCertText), nil)
	require.NoError(t, err)
	second, err := v.Verify(context.Background(), ocrResult(sampleCertText), nil)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestVerifyToleratesOCRTypos(t *testing.T) {
	v := newTestVerifier(t, sampleRecord())

	// One dropped character in the institution line.
	text := strings.Replace(sampleCertText, "DevLabs Institute", "DevLbs Institute", 1)

	result, err := v.Verify(context.Background(), ocrResult(text), nil)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionAuthentic, result.Decision)
	sim := result.FieldScores[match.FieldInstitution].Similarity
	assert.Greater(t, sim, 0.8)
	assert.Less(t, sim, 1.0)
}

func TestVerifyAbsentNameScoresZero(t *testing.T) {
	v := newTestVerifier(t, sampleRecord())

	// Strip the certifying phrase and name block; the rest still anchors.
	text := `COMPLETION RECORD

has successfully completed the course

B.Tech Computer Engineering

from

DevLabs Institute

in the year 2023

Registration Number: ABC2023001`

	result, err := v.Verify(context.Background(), ocrResult(text), nil)
	require.NoError(t, err)

	assert.Zero(t, result.FieldScores[match.FieldName].Similarity)
	// 0.30 + 0.20 + 0.15 with the name weight lost.
	assert.InDelta(t, 0.65, result.FinalScore, 1e-9)
	assert.Equal(t, models.DecisionSuspect, result.Decision)
	assert.Contains(t, result.Reasons, "name could not be extracted from the certificate text")
}

func TestVerifyNoIdentifierIsRejected(t *testing.T) {
	v := newTestVerifier(t, sampleRecord())

	result, err := v.Verify(context.Background(), ocrResult("Completely unrelated text with no codes."), nil)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionRejected, result.Decision)
	assert.Zero(t, result.FinalScore)
	assert.Empty(t, result.RegistrationNo)
	assert.Nil(t, result.DBRecord)
	assert.Contains(t, result.Reasons, "no matching registry identifier found")
}

func TestVerifyUnknownIdentifierIsRejected(t *testing.T) {
	v := newTestVerifier(t, sampleRecord())

	text := strings.Replace(sampleCertText, "ABC2023001", "ZZZ9999999", 1)

	result, err := v.Verify(context.Background(), ocrResult(text), nil)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionRejected, result.Decision)
	assert.Empty(t, result.RegistrationNo)
	assert.Contains(t, result.Reasons, "no matching registry identifier found")
}

func TestVerifyFailedOCRIsSoftRejection(t *testing.T) {
	v := newTestVerifier(t, sampleRecord())

	result, err := v.Verify(context.Background(), &ocr.Result{Success: false, Error: "E301"}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionRejected, result.Decision)
	assert.Contains(t, result.Reasons, "no readable text extracted from the certificate image")
}

func TestVerifyNilOCRResult(t *testing.T) {
	v := newTestVerifier(t, sampleRecord())

	result, err := v.Verify(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionRejected, result.Decision)
}

func TestVerifyFakeSealOverridesStrongText(t *testing.T) {
	v := newTestVerifier(t, sampleRecord())
	seal := &models.SealVerdict{Status: "Fail", SealStatus: "Fake", Confidence: 0.85}

	result, err := v.Verify(context.Background(), ocrResult(sampleCertText), seal)
	require.NoError(t, err)

	assert.Equal(t, models.DecisionRejected, result.Decision)
	// Text score is preserved for the report even though it is overridden.
	assert.GreaterOrEqual(t, result.FinalScore, 0.80)
	assert.Contains(t, result.Reasons[0], "seal classified as fake with confidence 0.85")
}

func TestVerifyGenuineSealKeepsAuthentic(t *testing.T) {
	v := newTestVerifier(t, sampleRecord())
	seal := &models.SealVerdict{Status: "Pass", SealStatus: "Real", Confidence: 0.93}

	result, err := v.Verify(context.Background(), ocrResult(sampleCertText), seal)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionAuthentic, result.Decision)
}

func TestVerifyYearRecoveredFromIdentifier(t *testing.T) {
	rec := models.RegistryRecord{
		PrimaryID:   "1BG19CS100",
		HolderName:  "VIKRAM VERMA",
		Institution: "BNM INSTITUTE OF TECHNOLOGY",
		Year:        2019,
	}
	v := newTestVerifier(t, rec)

	text := `USN: 1BG19CS100
Name of the Student: VIKRAM VERMA
Name of the College: BNM INSTITUTE OF TECHNOLOGY`

	result, err := v.Verify(context.Background(), ocrResult(text), nil)
	require.NoError(t, err)

	assert.Equal(t, 2019, result.Extracted.Year)
	assert.InDelta(t, 1.0, result.FieldScores[match.FieldYear].Similarity, 1e-9)
}

func TestVerifyGuardianMismatchIsAdvisoryOnly(t *testing.T) {
	rec := models.RegistryRecord{
		PrimaryID:    "1BG19CS100",
		HolderName:   "VIKRAM VERMA",
		Institution:  "BNM INSTITUTE OF TECHNOLOGY",
		GuardianName: "RAJESH VERMA",
		Year:         2019,
	}
	v := newTestVerifier(t, rec)

	text := `USN: 1BG19CS100
Name of the Student: VIKRAM VERMA
Father's Name : SOMEONE ELSE
Name of the College: BNM INSTITUTE OF TECHNOLOGY`

	result, err := v.Verify(context.Background(), ocrResult(text), nil)
	require.NoError(t, err)

	assert.Contains(t, result.Reasons, "guardian name on certificate does not match registry record")
	// Guardian never enters the aggregate: only the four scored fields do.
	_, scored := result.FieldScores["guardian_name"]
	assert.False(t, scored)
}

type failingStore struct {
	registry.Store
}

func (f *failingStore) LookupByID(context.Context, string) (*models.RegistryRecord, error) {
	return nil, errors.New("disk gone")
}

func TestVerifyStoreFailureIsHardError(t *testing.T) {
	v := NewVerifier(&failingStore{}, match.DefaultWeights(), DefaultPolicy())

	_, err := v.Verify(context.Background(), ocrResult(sampleCertText), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}
