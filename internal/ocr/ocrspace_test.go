package ocr

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *OCRSpaceService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewOCRSpaceService(OCRSpaceConfig{
		APIKey:   "test-key",
		Endpoint: server.URL,
	})
	require.NoError(t, err)
	return svc
}

func TestNewOCRSpaceServiceRequiresAPIKey(t *testing.T) {
	t.Setenv("OCRSPACE_API_KEY", "")

	_, err := NewOCRSpaceService(OCRSpaceConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewOCRSpaceServiceKeyFromEnv(t *testing.T) {
	t.Setenv("OCRSPACE_API_KEY", "env-key")

	svc, err := NewOCRSpaceService(OCRSpaceConfig{})
	require.NoError(t, err)
	assert.Equal(t, "env-key", svc.config.APIKey)
	assert.Equal(t, DefaultOCRSpaceEndpoint, svc.config.Endpoint)
	assert.Equal(t, "eng", svc.config.Language)
}

func TestProcessImageSuccess(t *testing.T) {
	var gotAPIKey, gotLanguage, gotEngine string

	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("apikey")
		assert.NoError(t, r.ParseMultipartForm(4<<20))
		gotLanguage = r.FormValue("language")
		gotEngine = r.FormValue("OCREngine")

		_, _, err := r.FormFile("file")
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"ParsedResults": [{
				"TextOverlay": {"Lines": [{"LineText": "USN: 1BG19CS100", "Words": [
					{"WordText": "USN:", "Left": 10, "Top": 5, "Width": 40, "Height": 12},
					{"WordText": "1BG19CS100", "Left": 55, "Top": 5, "Width": 90, "Height": 12}
				]}], "HasOverlay": true},
				"FileParseExitCode": 1,
				"ParsedText": "USN: 1BG19CS100\nName of the Student: VIKRAM VERMA"
			}],
			"OCRExitCode": 1,
			"IsErroredOnProcessing": false
		}`))
	})

	result, err := svc.ProcessImage(context.Background(), bytes.NewReader([]byte("fake-image-bytes")))
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "eng", gotLanguage)
	assert.Equal(t, "2", gotEngine)

	assert.True(t, result.Success)
	assert.Contains(t, result.Text, "1BG19CS100")
	require.Len(t, result.BoundingBoxes, 2)
	assert.Equal(t, "1BG19CS100", result.BoundingBoxes[1].Text)
	assert.Equal(t, 55, result.BoundingBoxes[1].Left)
	assert.False(t, result.ProcessedAt.IsZero())
}

func TestProcessImageEngineErrorIsSoftFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// E301 errors come back with ErrorMessage as an array.
		w.Write([]byte(`{
			"ParsedResults": [],
			"OCRExitCode": 3,
			"IsErroredOnProcessing": true,
			"ErrorMessage": ["E301: file failed validation", "file appears corrupt"]
		}`))
	})

	result, err := svc.ProcessImage(context.Background(), bytes.NewReader([]byte("not-an-image")))
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "E301: file failed validation; file appears corrupt", result.Error)
	assert.Empty(t, result.Text)
}

func TestProcessImageFileParseFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"ParsedResults": [{"FileParseExitCode": -10, "ParsedText": "", "ErrorMessage": "unable to recognize file type"}],
			"OCRExitCode": 1,
			"IsErroredOnProcessing": false
		}`))
	})

	result, err := svc.ProcessImage(context.Background(), bytes.NewReader([]byte("img")))
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "unable to recognize file type", result.Error)
}

func TestProcessImageHTTPErrorIsHardError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := svc.ProcessImage(context.Background(), bytes.NewReader([]byte("img")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOCRFailed)
	assert.Contains(t, err.Error(), "403")
}

func TestProcessImageRejectsEmptyAndOversized(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	})

	_, err := svc.ProcessImage(context.Background(), bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = svc.ProcessImage(context.Background(), bytes.NewReader(make([]byte, MaxImageSizeBytes+1)))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestFlexMessage(t *testing.T) {
	var m flexMessage
	require.NoError(t, m.UnmarshalJSON([]byte(`"single message"`)))
	assert.Equal(t, "single message", string(m))

	require.NoError(t, m.UnmarshalJSON([]byte(`["first", "second"]`)))
	assert.Equal(t, "first; second", string(m))

	assert.Error(t, m.UnmarshalJSON([]byte(`42`)))
}
