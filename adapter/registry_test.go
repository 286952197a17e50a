package adapter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gematik/app-AfoReporter/evidence"
)

type stubLinks struct{}

func (stubLinks) ScanForLinks(context.Context, string) (evidence.LinkSet, error) {
	return evidence.LinkSet{}, nil
}

type stubResults struct{}

func (stubResults) ScanForEvidence(context.Context, string) (evidence.EvidenceSet, error) {
	return evidence.EvidenceSet{}, nil
}

func TestParseFamily(t *testing.T) {
	tests := []struct {
		in      string
		want    Family
		wantErr bool
	}{
		{"source", SourceAnnotated, false},
		{"TAGS", TagBased, false},
		{" tagrun ", TagRun, false},
		{"", SourceAnnotated, false},
		{"junit", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFamily(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()

	_, _, err := r.Resolve(TagBased, nil)
	require.Error(t, err, "unregistered family")

	r.RegisterLink(TagBased, func(*slog.Logger) LinkScanner { return stubLinks{} })
	_, _, err = r.Resolve(TagBased, nil)
	require.Error(t, err, "result adapter missing")

	r.RegisterEvidence(TagBased, func(*slog.Logger) EvidenceScanner { return stubResults{} })
	links, results, err := r.Resolve(TagBased, nil)
	require.NoError(t, err)
	assert.IsType(t, stubLinks{}, links)
	assert.IsType(t, stubResults{}, results)
	assert.Equal(t, []Family{TagBased}, r.Families())
}

func TestCheckRoot(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.True(t, CheckRoot(dir, "test", logger))
	assert.Empty(t, buf.String())

	assert.False(t, CheckRoot("", "test", logger))
	assert.False(t, CheckRoot(filepath.Join(dir, "missing"), "test", logger))
	assert.False(t, CheckRoot(file, "test", logger))
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestScanError(t *testing.T) {
	cause := errors.New("permission denied")
	err := ScanError("/some/root", cause)
	assert.True(t, errors.Is(err, ErrScan))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "/some/root")
}
