package requirements

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gematik/app-AfoReporter/evidence"
)

func writeFeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFeedFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFeed(t, `[
  {"id": "A_19874", "version": "02", "title": "Token lifetime", "status": "PASSED",
   "afoStatus": "ADDED", "refName": "gemSpec_IDP_Server", "refURL": "https://example.org/spec",
   "description": "<p>The token <b>must</b> expire.</p>", "somethingNew": 42},
  {"id": "A_20000", "title": "Removed", "afoStatus": "deleted"},
  {"id": "A_20001", "title": "Plain"}
]`)

	reqs, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, reqs, 3)

	first := reqs[0]
	assert.Equal(t, "A_19874", first.ID)
	assert.Equal(t, "02", first.Version)
	assert.Equal(t, "A_19874-02", first.IDAndVersion())
	assert.Equal(t, evidence.StatusPassed, first.Status)
	assert.True(t, first.Added())
	assert.Equal(t, "gemSpec_IDP_Server", first.RefName)

	assert.True(t, reqs[1].Deleted())
	assert.Equal(t, evidence.StatusUnknown, reqs[1].Status)

	assert.Equal(t, LifecycleNotSet, reqs[2].Lifecycle)
	assert.Equal(t, "A_20001", reqs[2].IDAndVersion())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") },
			wantErr: ErrFeedMissing,
		},
		{
			name:    "empty array",
			path:    func(t *testing.T) string { return writeFeed(t, `[]`) },
			wantErr: ErrFeedEmpty,
		},
		{
			name:    "only nulls",
			path:    func(t *testing.T) string { return writeFeed(t, `[null]`) },
			wantErr: ErrFeedEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t), nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeFeed(t, `{"id": "not an array"}`), nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrFeedEmpty))
	assert.False(t, errors.Is(err, ErrFeedMissing))
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		in          string
		wantID      string
		wantVersion string
	}{
		{"A_12345-01", "A_12345", "01"},
		{"A_12345", "A_12345", ""},
		{"GS-A_4357-02", "GS-A_4357", "02"},
		{"plain-3", "plain", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r := &Requirement{ID: tt.in}
			r.SanitizeID()
			assert.Equal(t, tt.wantID, r.ID)
			assert.Equal(t, tt.wantVersion, r.Version)
		})
	}
}
