// Package ocr provides text extraction from scanned certificate images via
// external OCR services.
//
// Two providers implement the same contract:
//   - OCR.space: the hosted HTTP API the verification system was built
//     against. Requires OCRSPACE_API_KEY.
//   - Google Cloud Vision: document text detection on images. Requires
//     GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.
//
// The verification core only consumes the Result contract (success flag,
// extracted text, confidence, error message). A Result with Success=false or
// empty Text is a legitimate soft failure: the verifier degrades to "no
// candidates, no fields" and never crashes on it.
package ocr

import (
	"context"
	"io"
	"time"
)

// Service defines the interface for OCR text extraction services.
type Service interface {
	// ProcessImage extracts text from a certificate image (PNG/JPEG).
	// OCR-level failures (unreadable image, engine errors) are reported in
	// the Result with Success=false; a non-nil error means the service
	// itself could not be reached or was misconfigured.
	ProcessImage(ctx context.Context, image io.Reader) (*Result, error)
}

// Result contains the outcome of OCR processing.
type Result struct {
	// Success is false when the OCR engine could not read the image.
	Success bool `json:"success"`

	// Text is the extracted text content in reading order.
	Text string `json:"extracted_text"`

	// Confidence is the engine-reported confidence in [0,1]. Zero when the
	// provider does not report one (OCR.space); never used in field scoring.
	Confidence float64 `json:"confidence"`

	// BoundingBoxes holds word-level boxes when overlay extraction was
	// requested and the provider supports it.
	BoundingBoxes []BoundingBox `json:"bounding_boxes,omitempty"`

	// Error is the engine's failure message when Success is false.
	Error string `json:"error,omitempty"`

	// ProcessedAt is when OCR processing completed.
	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingDuration is how long the OCR call took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// BoundingBox is a word-level text region in image coordinates.
type BoundingBox struct {
	Text   string `json:"text"`
	Left   int    `json:"left"`
	Top    int    `json:"top"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
