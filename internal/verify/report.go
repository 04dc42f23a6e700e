package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"certverify/pkg/models"
)

// BuildReport wraps a verification result with export metadata. The report
// ID and timestamp live here, outside the scoring path, so verification
// itself stays reproducible.
func BuildReport(result *models.VerificationResult, fileName string) *models.Report {
	return &models.Report{
		ReportID:  uuid.NewString(),
		Timestamp: time.Now().UTC(),
		FileName:  fileName,
		Result:    *result,
		Summary: models.ReportSummary{
			Decision:        result.Decision,
			ConfidenceScore: result.FinalScore,
			RegistrationNo:  result.RegistrationNo,
			DatabaseMatch:   result.DBRecord != nil,
		},
	}
}

// WriteReportJSON serializes the report for download/export.
func WriteReportJSON(w io.Writer, report *models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode verification report: %w", err)
	}
	return nil
}
