// Package sheets appends verification outcomes to a Google Sheets audit
// trail. Export is optional and sits outside the verification path: a failed
// append never changes a decision.
package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"certverify/internal/logger"
	"certverify/pkg/models"
)

// Service handles Google Sheets operations for the verification audit trail.
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	worksheet     string
	log           zerolog.Logger
}

// NewService creates a sheets client for the spreadsheet behind the given
// URL. Credentials come from GOOGLE_CREDENTIALS or
// GOOGLE_APPLICATION_CREDENTIALS, matching the vision OCR provider.
func NewService(ctx context.Context, sheetURL, worksheet string) (*Service, error) {
	const op = "NewService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}
	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	var opts []option.ClientOption
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets client: %w", op, err)
	}

	if worksheet == "" {
		worksheet = "Verifications"
	}

	return &Service{
		sheetsService: svc,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		log:           log,
	}, nil
}

// AppendReport appends one flat verification row to the audit worksheet.
func (s *Service) AppendReport(ctx context.Context, report *models.Report) error {
	const op = "AppendReport"

	row := []interface{}{
		report.Timestamp.Format(time.RFC3339),
		report.ReportID,
		report.FileName,
		string(report.Summary.Decision),
		report.Summary.ConfidenceScore,
		report.Summary.RegistrationNo,
		report.Summary.DatabaseMatch,
		fieldSimilarity(report, "name"),
		fieldSimilarity(report, "institution"),
		fieldSimilarity(report, "degree"),
		fieldSimilarity(report, "year"),
		strings.Join(report.Result.Reasons, "; "),
	}

	valueRange := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := s.sheetsService.Spreadsheets.Values.
		Append(s.spreadsheetID, s.worksheet+"!A:L", valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%s: append failed: %w", op, err)
	}

	s.log.Info().
		Str("report_id", report.ReportID).
		Str("worksheet", s.worksheet).
		Msg("Verification row appended to audit sheet")
	return nil
}

func fieldSimilarity(report *models.Report, field string) float64 {
	if score, ok := report.Result.FieldScores[field]; ok {
		return score.Similarity
	}
	return 0
}

var spreadsheetIDRe = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9\-_]+)`)

// extractSpreadsheetID pulls the spreadsheet ID out of a full sheet URL, or
// accepts a bare ID.
func extractSpreadsheetID(sheetURL string) (string, error) {
	if m := spreadsheetIDRe.FindStringSubmatch(sheetURL); m != nil {
		return m[1], nil
	}
	trimmed := strings.TrimSpace(sheetURL)
	if trimmed != "" && !strings.Contains(trimmed, "/") {
		return trimmed, nil
	}
	return "", fmt.Errorf("could not extract spreadsheet ID from %q", sheetURL)
}
