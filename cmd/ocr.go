package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"certverify/internal/logger"
	"certverify/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [image-file]",
	Short: "Extract text from a certificate image using an external OCR service",
	Long: `Process a certificate image through an external OCR service and print the
extracted text.

Two providers are supported:
  ocrspace - OCR.space HTTP API (requires OCRSPACE_API_KEY)
  vision   - Google Cloud Vision document text detection (requires
             GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS)`,
	Example: `  # Extract text from a certificate scan to stdout
  certverify ocr certificate.jpg

  # Use Google Cloud Vision and save JSON output
  certverify ocr certificate.jpg --provider vision --json -o result.json

  # Request word bounding boxes
  certverify ocr certificate.jpg --overlay --json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCRCommand,
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().String("provider", envOr("OCR_PROVIDER", "ocrspace"), "OCR provider: ocrspace or vision")
	ocrCmd.Flags().String("language", envOr("OCR_LANGUAGE", "eng"), "OCR language code (ocrspace provider)")
	ocrCmd.Flags().Bool("overlay", false, "Request word-level bounding boxes")
	ocrCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runOCRCommand(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr-cmd")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	provider, _ := cmd.Flags().GetString("provider")
	language, _ := cmd.Flags().GetString("language")
	overlay, _ := cmd.Flags().GetBool("overlay")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]

	log.Info().
		Str("file", imagePath).
		Str("provider", provider).
		Bool("json", jsonOutput).
		Msg("Starting OCR extraction")

	if err := validateImageFile(imagePath, log); err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

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

	result, err := service.ProcessImage(ctx, imageFile)
	if err != nil {
		return handleOCRError(err, log)
	}

	if !result.Success {
		return fmt.Errorf("OCR could not read the image: %s", result.Error)
	}

	log.Info().
		Int("text_length", len(result.Text)).
		Float64("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Msg("OCR extraction completed")

	var outputData []byte
	if jsonOutput {
		outputData, err = json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	} else {
		outputData = []byte(result.Text)
	}

	return writeOutput(outputData, outputPath, jsonOutput, log)
}

// validateImageFile checks the path points at a readable, non-empty regular file.
func validateImageFile(imagePath string, log zerolog.Logger) error {
	fileInfo, err := os.Stat(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file not found: %s", imagePath)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied accessing image file: %s", imagePath)
		}
		return fmt.Errorf("error accessing image file: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return fmt.Errorf("path is not a regular file: %s", imagePath)
	}
	if fileInfo.Size() == 0 {
		return fmt.Errorf("image file is empty: %s", imagePath)
	}

	ext := strings.ToLower(filepath.Ext(imagePath))
	switch ext {
	case ".png", ".jpg", ".jpeg":
	default:
		log.Warn().Str("file", imagePath).Str("ext", ext).Msg("Unusual image extension; JPG/PNG work best")
	}
	return nil
}

// createContextWithTimeout creates a context with timeout and signal handling.
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// createOCRService builds the requested OCR provider.
func createOCRService(ctx context.Context, provider, language string, overlay bool, log zerolog.Logger) (ocr.Service, error) {
	switch provider {
	case "ocrspace":
		service, err := ocr.NewOCRSpaceService(ocr.OCRSpaceConfig{
			Language: language,
			Overlay:  overlay,
		})
		if err != nil {
			if errors.Is(err, ocr.ErrMissingAPIKey) {
				return nil, fmt.Errorf("OCR.space API key not configured. Set OCRSPACE_API_KEY in your environment or .env file, " +
					"or use --provider vision with Google Cloud credentials")
			}
			return nil, fmt.Errorf("failed to create OCR service: %w", err)
		}
		return service, nil
	case "vision":
		service, err := ocr.NewGoogleVisionService(ctx)
		if err != nil {
			if errors.Is(err, ocr.ErrMissingCredentials) {
				return nil, fmt.Errorf("Google Cloud credentials not configured. Set GOOGLE_APPLICATION_CREDENTIALS to a " +
					"service account JSON path or GOOGLE_CREDENTIALS to inline JSON")
			}
			return nil, fmt.Errorf("failed to create OCR service: %w", err)
		}
		return service, nil
	default:
		return nil, fmt.Errorf("unknown OCR provider %q (expected ocrspace or vision)", provider)
	}
}

// handleOCRError translates OCR failures into user-facing messages.
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrImageTooLarge):
		return fmt.Errorf("image file is too large for the OCR provider. Try resizing or compressing the scan")
	case errors.Is(err, ocr.ErrInvalidImage):
		return fmt.Errorf("invalid or corrupted image file. Please check the file")
	case errors.Is(err, ocr.ErrEmptyDocument):
		return fmt.Errorf("no readable text found in the image. Use a clear, well-lit, straight-aligned scan")
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR processing failed. This may be due to network issues, API quota limits, or service unavailability: %w", err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}

// writeOutput writes result data to a file or stdout.
func writeOutput(data []byte, outputPath string, isJSON bool, log zerolog.Logger) error {
	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(data)).
			Msg("Results written to file")
		return nil
	}

	if _, err := os.Stdout.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !isJSON {
		fmt.Println()
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
