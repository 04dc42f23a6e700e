package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"certverify/internal/logger"
	"certverify/internal/match"
	"certverify/internal/ocr"
	"certverify/internal/registry"
	"certverify/internal/sheets"
	"certverify/internal/verify"
	"certverify/pkg/models"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [image-file]",
	Short: "Verify a scanned certificate against the registry database",
	Long: `Run the full verification pipeline over a certificate image: OCR text
extraction, registration number lookup, fuzzy field matching, and the final
AUTHENTIC / SUSPECT / REJECTED decision.

An external seal classifier verdict (JSON file with status, seal_status and
confidence) can be supplied with --seal-result; a high-confidence fake seal
overrides an otherwise-authentic text decision.`,
	Example: `  # Verify a certificate scan
  certverify verify certificate.jpg

  # Verify with a seal classifier verdict folded into the decision
  certverify verify certificate.jpg --seal-result seal.json

  # Produce a JSON report file
  certverify verify certificate.jpg --json -o report.json

  # Exercise the pipeline without an OCR key
  certverify verify --demo saksham`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("db", envOr("REGISTRY_DB_PATH", "certs.db"), "Registry database path")
	verifyCmd.Flags().String("provider", envOr("OCR_PROVIDER", "ocrspace"), "OCR provider: ocrspace or vision")
	verifyCmd.Flags().String("language", envOr("OCR_LANGUAGE", "eng"), "OCR language code (ocrspace provider)")
	verifyCmd.Flags().Bool("overlay", false, "Request word-level bounding boxes from OCR")
	verifyCmd.Flags().Int("timeout", 120, "OCR timeout in seconds")
	verifyCmd.Flags().String("demo", "", "Use a named demo OCR fixture instead of real OCR")
	verifyCmd.Flags().String("seal-result", "", "Path to a seal classifier verdict JSON file")
	verifyCmd.Flags().Bool("json", false, "Output the full report as JSON")
	verifyCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	verifyCmd.Flags().Bool("audit", false, "Append the result to the configured audit sheet")
}

func runVerify(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("verify-cmd")

	dbPath, _ := cmd.Flags().GetString("db")
	provider, _ := cmd.Flags().GetString("provider")
	language, _ := cmd.Flags().GetString("language")
	overlay, _ := cmd.Flags().GetBool("overlay")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	demoName, _ := cmd.Flags().GetString("demo")
	sealPath, _ := cmd.Flags().GetString("seal-result")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")
	audit, _ := cmd.Flags().GetBool("audit")

	if demoName == "" && len(args) == 0 {
		return fmt.Errorf("provide a certificate image file or --demo <name>")
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	// A missing registry is a configuration error, reported as such; it is
	// never folded into a REJECTED decision.
	store, err := registry.OpenSQLite(dbPath, false)
	if err != nil {
		if errors.Is(err, registry.ErrStoreUnavailable) {
			return fmt.Errorf("registry database not available at %s. Run 'certverify import' to create and populate it", dbPath)
		}
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close registry store")
		}
	}()

	// Obtain OCR output: demo fixture or a real provider call.
	var ocrResult *ocr.Result
	var fileName string
	if demoName != "" {
		ocrResult, err = ocr.DemoResult(demoName)
		if err != nil {
			return err
		}
		fileName = "demo:" + demoName
		log.Info().Str("demo", demoName).Msg("Using demo OCR fixture")
	} else {
		imagePath := args[0]
		fileName = filepath.Base(imagePath)
		if err := validateImageFile(imagePath, log); err != nil {
			return err
		}

		service, err := createOCRService(ctx, provider, language, overlay, log)
		if err != nil {
			return err
		}

		imageFile, err := os.Open(imagePath)
		if err != nil {
			return fmt.Errorf("failed to open image file: %w", err)
		}
		defer func() {
			if closeErr := imageFile.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close image file")
			}
		}()

		ocrResult, err = service.ProcessImage(ctx, imageFile)
		if err != nil {
			return handleOCRError(err, log)
		}
	}

	var seal *models.SealVerdict
	if sealPath != "" {
		seal, err = verify.LoadSealVerdict(sealPath)
		if err != nil {
			return err
		}
		log.Info().
			Str("status", seal.Status).
			Str("seal_status", seal.SealStatus).
			Float64("confidence", seal.Confidence).
			Msg("Loaded seal classifier verdict")
	}

	verifier := verify.NewVerifier(store, match.DefaultWeights(), verify.DefaultPolicy())
	result, err := verifier.Verify(ctx, ocrResult, seal)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	report := verify.BuildReport(result, fileName)

	if audit {
		appendToAuditSheet(cmd, report)
	}

	if jsonOutput {
		return writeReport(report, outputPath, log)
	}
	printResultSummary(report)
	if outputPath != "" {
		return writeReport(report, outputPath, log)
	}
	return nil
}

// appendToAuditSheet exports the report when an audit sheet is configured.
// Audit failures are logged, never fatal: the decision already stands.
func appendToAuditSheet(cmd *cobra.Command, report *models.Report) {
	log := logger.WithComponent("verify-cmd")

	sheetURL := os.Getenv("AUDIT_SHEET_URL")
	if sheetURL == "" {
		log.Warn().Msg("--audit requested but AUDIT_SHEET_URL is not configured")
		return
	}

	service, err := sheets.NewService(cmd.Context(), sheetURL, os.Getenv("AUDIT_SHEET_WORKSHEET"))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create audit sheet client")
		return
	}
	if err := service.AppendReport(cmd.Context(), report); err != nil {
		log.Warn().Err(err).Msg("Failed to append verification row to audit sheet")
	}
}

func writeReport(report *models.Report, outputPath string, log zerolog.Logger) error {
	if outputPath == "" {
		return verify.WriteReportJSON(os.Stdout, report)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()
	if err := verify.WriteReportJSON(file, report); err != nil {
		return err
	}
	log.Info().Str("output_file", outputPath).Msg("Verification report written")
	return nil
}

// printResultSummary renders the human-readable verification summary.
func printResultSummary(report *models.Report) {
	result := report.Result

	fmt.Printf("Decision:        %s\n", result.Decision)
	fmt.Printf("Confidence:      %.1f%%\n", result.FinalScore*100)
	if result.RegistrationNo != "" {
		fmt.Printf("Registration:    %s\n", result.RegistrationNo)
	} else {
		fmt.Printf("Registration:    not found\n")
	}

	if result.DBRecord != nil {
		rec := result.DBRecord
		fmt.Printf("\nRegistry record:\n")
		fmt.Printf("  Name:          %s\n", rec.HolderName)
		fmt.Printf("  Institution:   %s\n", rec.Institution)
		fmt.Printf("  Degree:        %s\n", rec.Degree)
		fmt.Printf("  Year:          %d\n", rec.Year)
	} else {
		fmt.Printf("\nNo matching registry record found\n")
	}

	if len(result.FieldScores) > 0 {
		fmt.Printf("\nField scores:\n")
		for _, field := range []string{"name", "institution", "degree", "year"} {
			if score, ok := result.FieldScores[field]; ok {
				label := strings.ToUpper(field[:1]) + field[1:] + ":"
				fmt.Printf("  %-13s %.1f%%\n", label, score.Similarity*100)
			}
		}
	}

	fmt.Printf("\nReasons:\n")
	for _, reason := range result.Reasons {
		fmt.Printf("  - %s\n", reason)
	}
	fmt.Printf("\nReport ID: %s\n", report.ReportID)
}
