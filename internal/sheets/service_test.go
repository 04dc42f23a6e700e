package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certverify/pkg/models"
)

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "full URL",
			url:  "https://docs.google.com/spreadsheets/d/1AbC-dEf_123/edit#gid=0",
			want: "1AbC-dEf_123",
		},
		{
			name: "URL without fragment",
			url:  "https://docs.google.com/spreadsheets/d/xyz789",
			want: "xyz789",
		},
		{
			name: "bare ID",
			url:  "1AbC-dEf_123",
			want: "1AbC-dEf_123",
		},
		{
			name:    "empty",
			url:     "",
			wantErr: true,
		},
		{
			name:    "unrelated URL",
			url:     "https://example.com/some/path",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractSpreadsheetID(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldSimilarity(t *testing.T) {
	report := &models.Report{
		Result: models.VerificationResult{
			FieldScores: map[string]models.FieldScore{
				"name": {Field: "name", Similarity: 0.93},
			},
		},
	}

	assert.InDelta(t, 0.93, fieldSimilarity(report, "name"), 1e-9)
	assert.Zero(t, fieldSimilarity(report, "degree"))
}
