package verify

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certverify/pkg/models"
)

func TestBuildReport(t *testing.T) {
	result := &models.VerificationResult{
		Decision:       models.DecisionAuthentic,
		FinalScore:     0.95,
		RegistrationNo: "ABC2023001",
		DBRecord:       &models.RegistryRecord{PrimaryID: "ABC2023001"},
	}

	report := BuildReport(result, "certificate.jpg")

	assert.NotEmpty(t, report.ReportID)
	assert.False(t, report.Timestamp.IsZero())
	assert.Equal(t, "certificate.jpg", report.FileName)
	assert.Equal(t, models.DecisionAuthentic, report.Summary.Decision)
	assert.InDelta(t, 0.95, report.Summary.ConfidenceScore, 1e-9)
	assert.Equal(t, "ABC2023001", report.Summary.RegistrationNo)
	assert.True(t, report.Summary.DatabaseMatch)

	// Metadata is fresh per report even for identical results.
	other := BuildReport(result, "certificate.jpg")
	assert.NotEqual(t, report.ReportID, other.ReportID)
}

func TestWriteReportJSON(t *testing.T) {
	report := BuildReport(&models.VerificationResult{
		Decision:   models.DecisionSuspect,
		FinalScore: 0.62,
		Reasons:    []string{"field similarity score 0.62 requires manual review"},
	}, "")

	var buf bytes.Buffer
	require.NoError(t, WriteReportJSON(&buf, report))

	var decoded models.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.ReportID, decoded.ReportID)
	assert.Equal(t, models.DecisionSuspect, decoded.Summary.Decision)
}

func TestLoadSealVerdict(t *testing.T) {
	dir := t.TempDir()

	writeVerdict := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("valid", func(t *testing.T) {
		path := writeVerdict("ok.json", `{"status":"Fail","seal_status":"Fake","confidence":0.85,"reason":"pattern anomaly"}`)
		verdict, err := LoadSealVerdict(path)
		require.NoError(t, err)
		assert.Equal(t, "Fail", verdict.Status)
		assert.Equal(t, "Fake", verdict.SealStatus)
		assert.InDelta(t, 0.85, verdict.Confidence, 1e-9)
		assert.True(t, verdict.Fake(0.70))
	})

	t.Run("bad status", func(t *testing.T) {
		path := writeVerdict("status.json", `{"status":"Maybe","seal_status":"Real","confidence":0.5}`)
		_, err := LoadSealVerdict(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status")
	})

	t.Run("bad seal status", func(t *testing.T) {
		path := writeVerdict("seal.json", `{"status":"Pass","seal_status":"Unknown","confidence":0.5}`)
		_, err := LoadSealVerdict(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected seal_status")
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeVerdict("bad.json", `not json`)
		_, err := LoadSealVerdict(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSealVerdict(filepath.Join(dir, "absent.json"))
		require.Error(t, err)
	})
}
