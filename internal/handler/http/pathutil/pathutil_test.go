package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"9007199254740993", 9007199254740993, false},
		{"0", 0, true},
		{"-4", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseID(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/external-sources/12":                     "/external-sources/:id",
		"/external-sources/12/":                    "/external-sources/:id",
		"/external-sources/12/fetch":               "/external-sources/:id/fetch",
		"/external-sources/fetch":                  "/external-sources/fetch",
		"/extraction/jobs/5b1c2a4e-0000-4000-8000": "/extraction/jobs/:id",
		"/extraction/content/2024-03-01":           "/extraction/content/:date",
		"/extraction/logs?level=error":             "/extraction/logs",
		"/health":                                  "/health",
		"/":                                        "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePath(in), in)
	}
}
