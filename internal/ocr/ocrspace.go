package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"certverify/internal/logger"
)

const (
	// DefaultOCRSpaceEndpoint is the hosted parse endpoint.
	DefaultOCRSpaceEndpoint = "https://api.ocr.space/parse/image"

	// MaxImageSizeBytes is the OCR.space free-tier upload limit (1MB).
	MaxImageSizeBytes = 1 * 1024 * 1024
)

// OCRSpaceConfig holds configuration for the OCR.space provider.
type OCRSpaceConfig struct {
	// APIKey is the OCR.space API key. Falls back to OCRSPACE_API_KEY.
	APIKey string

	// Endpoint overrides the API URL (used by tests).
	Endpoint string

	// Language is the OCR language code (default "eng").
	Language string

	// Overlay requests word-level bounding boxes.
	Overlay bool

	// Timeout is the HTTP request timeout. Default: 60 seconds.
	Timeout time.Duration
}

// OCRSpaceService implements Service using the OCR.space HTTP API.
type OCRSpaceService struct {
	config OCRSpaceConfig
	client *http.Client
	log    zerolog.Logger
}

// NewOCRSpaceService creates an OCR.space client. The API key is taken from
// the config or, if empty, from the OCRSPACE_API_KEY environment variable.
func NewOCRSpaceService(config OCRSpaceConfig) (*OCRSpaceService, error) {
	const op = "NewOCRSpaceService"

	if config.APIKey == "" {
		config.APIKey = os.Getenv("OCRSPACE_API_KEY")
	}
	if config.APIKey == "" {
		return nil, WrapOCRError(op, ErrMissingAPIKey, "no API key in config or environment")
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultOCRSpaceEndpoint
	}
	if config.Language == "" {
		config.Language = "eng"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	return &OCRSpaceService{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		log:    logger.WithComponent("ocrspace"),
	}, nil
}

// ocrSpaceResponse mirrors the OCR.space parse response.
type ocrSpaceResponse struct {
	ParsedResults []struct {
		TextOverlay struct {
			Lines []struct {
				LineText string `json:"LineText"`
				Words    []struct {
					WordText string  `json:"WordText"`
					Left     float64 `json:"Left"`
					Top      float64 `json:"Top"`
					Height   float64 `json:"Height"`
					Width    float64 `json:"Width"`
				} `json:"Words"`
			} `json:"Lines"`
			HasOverlay bool `json:"HasOverlay"`
		} `json:"TextOverlay"`
		FileParseExitCode int    `json:"FileParseExitCode"`
		ParsedText        string `json:"ParsedText"`
		ErrorMessage      string `json:"ErrorMessage"`
		ErrorDetails      string `json:"ErrorDetails"`
	} `json:"ParsedResults"`
	OCRExitCode           int         `json:"OCRExitCode"`
	IsErroredOnProcessing bool        `json:"IsErroredOnProcessing"`
	ErrorMessage          flexMessage `json:"ErrorMessage"`
	ErrorDetails          string      `json:"ErrorDetails"`
}

// flexMessage tolerates the API returning either a string or a string array
// in the top-level ErrorMessage field (E301 errors come back as an array).
type flexMessage string

func (m *flexMessage) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*m = flexMessage(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*m = flexMessage(strings.Join(many, "; "))
	return nil
}

// ProcessImage uploads the image to OCR.space and returns the parsed text.
func (s *OCRSpaceService) ProcessImage(ctx context.Context, image io.Reader) (*Result, error) {
	const op = "ProcessImage"
	startTime := time.Now()

	imageBytes, err := io.ReadAll(image)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read image data")
	}
	if len(imageBytes) == 0 {
		return nil, WrapOCRError(op, ErrInvalidImage, "empty image data")
	}
	if len(imageBytes) > MaxImageSizeBytes {
		return nil, WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("file size: %d bytes", len(imageBytes)))
	}

	req, err := s.buildRequest(ctx, imageBytes)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to build request")
	}

	s.log.Debug().
		Int("image_bytes", len(imageBytes)).
		Str("language", s.config.Language).
		Bool("overlay", s.config.Overlay).
		Msg("Submitting image to OCR.space")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("request failed: %v", err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.log.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, WrapOCRError(op, ErrOCRFailed,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var parsed ocrSpaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("failed to decode response: %v", err))
	}

	result := s.buildResult(&parsed)
	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	s.log.Info().
		Bool("success", result.Success).
		Int("text_length", len(result.Text)).
		Int("bounding_boxes", len(result.BoundingBoxes)).
		Dur("duration", result.ProcessingDuration).
		Msg("OCR.space processing completed")

	return result, nil
}

// buildRequest assembles the multipart upload.
func (s *OCRSpaceService) buildRequest(ctx context.Context, imageBytes []byte) (*http.Request, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"language":          s.config.Language,
		"isOverlayRequired": fmt.Sprintf("%t", s.config.Overlay),
		"scale":             "true",
		"OCREngine":         "2",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}

	part, err := writer.CreateFormFile("file", "certificate.jpg")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(imageBytes); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("apikey", s.config.APIKey)
	return req, nil
}

// buildResult maps the API response onto the Result contract. Engine-level
// failures (E301 etc.) become Success=false rather than a Go error so the
// verifier can treat them as the soft "no text" path.
func (s *OCRSpaceService) buildResult(parsed *ocrSpaceResponse) *Result {
	if parsed.IsErroredOnProcessing || len(parsed.ParsedResults) == 0 {
		msg := string(parsed.ErrorMessage)
		if msg == "" {
			msg = "no parse results returned"
		}
		return &Result{Success: false, Error: msg}
	}

	var text strings.Builder
	var boxes []BoundingBox
	for _, pr := range parsed.ParsedResults {
		if pr.FileParseExitCode != 1 {
			msg := pr.ErrorMessage
			if msg == "" {
				msg = fmt.Sprintf("file parse exit code %d", pr.FileParseExitCode)
			}
			return &Result{Success: false, Error: msg}
		}
		text.WriteString(pr.ParsedText)
		for _, line := range pr.TextOverlay.Lines {
			for _, word := range line.Words {
				boxes = append(boxes, BoundingBox{
					Text:   word.WordText,
					Left:   int(word.Left),
					Top:    int(word.Top),
					Width:  int(word.Width),
					Height: int(word.Height),
				})
			}
		}
	}

	return &Result{
		Success:       true,
		Text:          text.String(),
		BoundingBoxes: boxes,
		// OCR.space does not report an engine confidence.
		Confidence: 0,
	}
}
