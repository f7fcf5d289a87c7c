package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}
	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectedError    string
	}{
		{name: "valid format - json", format: "json", supportedFormats: supported},
		{name: "valid format - markdown", format: "markdown", supportedFormats: supported},
		{
			name:             "invalid format - xml",
			format:           "xml",
			supportedFormats: supported,
			expectedError:    "unsupported output format 'xml'. Supported formats: [json text markdown]",
		},
		{
			name:             "case sensitive - JSON uppercase",
			format:           "JSON",
			supportedFormats: supported,
			expectedError:    "unsupported output format 'JSON'. Supported formats: [json text markdown]",
		},
		{
			name:             "empty format string",
			format:           "",
			supportedFormats: supported,
			expectedError:    "unsupported output format ''. Supported formats: [json text markdown]",
		},
		{name: "empty supported formats - should allow all", format: "xml", supportedFormats: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.expectedError)
		})
	}
}

func TestParseWeights(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]float64
		wantErr string
	}{
		{name: "empty", input: "  ", want: nil},
		{
			name:  "two keys with spaces",
			input: "github_analysis=0.4, resume_jd_match = 0.6",
			want:  map[string]float64{"github_analysis": 0.4, "resume_jd_match": 0.6},
		},
		{name: "trailing comma", input: "twitter_analysis=0,", want: map[string]float64{"twitter_analysis": 0}},
		{name: "missing value", input: "github_analysis", wantErr: "must look like key=value"},
		{name: "missing key", input: "=0.5", wantErr: "must look like key=value"},
		{name: "not a number", input: "github_analysis=high", wantErr: `weight "github_analysis"`},
		{name: "duplicate", input: "github_analysis=0.1,github_analysis=0.2", wantErr: "given twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWeights(tt.input)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsStructuredFile(t *testing.T) {
	assert.True(t, IsStructuredFile("resume.yaml"))
	assert.True(t, IsStructuredFile("resume.YML"))
	assert.True(t, IsStructuredFile("dir/job.json"))
	assert.False(t, IsStructuredFile("resume.txt"))
	assert.False(t, IsStructuredFile("resume"))
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supportedFormats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supportedFormats)
		}
	})
}
