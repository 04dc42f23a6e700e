package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// GoogleVisionService implements Service using Google Cloud Vision document
// text detection on certificate images.
type GoogleVisionService struct {
	client *vision.ImageAnnotatorClient
}

// NewGoogleVisionService creates a new OCR service with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVisionService(ctx context.Context) (*GoogleVisionService, error) {
	const op = "NewGoogleVisionService"

	var client *vision.ImageAnnotatorClient
	var err error

	// Check for inline credentials first
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &GoogleVisionService{client: client}, nil
}

// NewGoogleVisionServiceWithClient creates a service with an explicit client (for testing).
func NewGoogleVisionServiceWithClient(client *vision.ImageAnnotatorClient) *GoogleVisionService {
	return &GoogleVisionService{client: client}
}

// ProcessImage extracts text from a certificate image.
func (g *GoogleVisionService) ProcessImage(ctx context.Context, image io.Reader) (*Result, error) {
	const op = "ProcessImage"
	startTime := time.Now()

	imageBytes, err := io.ReadAll(image)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read image data")
	}
	if len(imageBytes) == 0 {
		return nil, WrapOCRError(op, ErrInvalidImage, "empty image data")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: imageBytes},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		// An annotation-level error is an engine failure over this image,
		// not a transport problem; surface it on the soft path.
		return &Result{
			Success:     false,
			Error:       annotation.Error.Message,
			ProcessedAt: time.Now(),
		}, nil
	}

	result := buildVisionResult(annotation)
	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)
	return result, nil
}

// buildVisionResult maps the annotation onto the Result contract.
func buildVisionResult(annotation *visionpb.AnnotateImageResponse) *Result {
	fullText := annotation.GetFullTextAnnotation()
	if fullText == nil || fullText.GetText() == "" {
		return &Result{Success: false, Error: ErrEmptyDocument.Error()}
	}

	// Average page-level confidence across the (usually single) page.
	var confidenceSum float64
	var pages int
	for _, page := range fullText.GetPages() {
		confidenceSum += float64(page.GetConfidence())
		pages++
	}
	confidence := 0.0
	if pages > 0 {
		confidence = confidenceSum / float64(pages)
	}

	// TextAnnotations[0] is the full text; the rest are word boxes.
	var boxes []BoundingBox
	annotations := annotation.GetTextAnnotations()
	for i, ta := range annotations {
		if i == 0 {
			continue
		}
		vertices := ta.GetBoundingPoly().GetVertices()
		if len(vertices) < 3 {
			continue
		}
		boxes = append(boxes, BoundingBox{
			Text:   ta.GetDescription(),
			Left:   int(vertices[0].GetX()),
			Top:    int(vertices[0].GetY()),
			Width:  int(vertices[2].GetX() - vertices[0].GetX()),
			Height: int(vertices[2].GetY() - vertices[0].GetY()),
		})
	}

	return &Result{
		Success:       true,
		Text:          fullText.GetText(),
		Confidence:    confidence,
		BoundingBoxes: boxes,
	}
}
