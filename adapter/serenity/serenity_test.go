package serenity

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gematik/app-AfoReporter/evidence"
)

const passedOutcome = `{
  "id": "idp-discovery-document;disc---document-contains-keys",
  "title": "Disc - Document contains keys",
  "result": "SUCCESS",
  "userStory": {
    "storyName": "IDP Discovery Document",
    "path": "features/discovery.feature"
  },
  "tags": [
    {"name": "A_19874", "type": "Afo"},
    {"name": "Approval", "type": "tag"},
    {"name": "A_20591", "type": "Afo"}
  ],
  "duration": 120
}`

const failedOutcome = `{
  "id": "idp-token;refresh-expires",
  "title": "Refresh expires",
  "result": "FAILURE",
  "userStory": {"storyName": "IDP Token", "path": "features/token.feature"},
  "testFailureCause": {"errorType": "java.lang.AssertionError", "message": "expected 401"},
  "tags": [{"name": "A_20457", "type": "Afo"}]
}`

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestMapResult(t *testing.T) {
	tests := map[string]evidence.Status{
		"FAILURE":     evidence.StatusFailed,
		"ERROR":       evidence.StatusError,
		"SUCCESS":     evidence.StatusPassed,
		"SKIPPED":     evidence.StatusSkipped,
		"PENDING":     evidence.StatusUnknown,
		"COMPROMISED": evidence.StatusUnknown,
		"":            evidence.StatusUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapResult(in), in)
	}
}

func TestScanForEvidence(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a1.json", passedOutcome)
	write(t, root, "b2.json", failedOutcome)
	write(t, root, "c3.json", `{"id": "x;y", "title": "no cause", "result": "ERROR"}`)
	write(t, root, "d4.json", `{"id": "solo", "result": "SKIPPED"}`)
	write(t, root, "broken.json", `{"id": `)
	write(t, root, "requirements.json", `[{"id": "A_19874"}]`)
	write(t, root, "aforeport.json", `{"id": "report", "result": "PASSED"}`)
	write(t, root, "outcome.xml", `<x/>`)

	set, err := New(nil).ScanForEvidence(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, set, 3)

	passed := set["idp-discovery-document:disc---document-contains-keys"]
	assert.Equal(t, evidence.StatusPassed, passed.Status)
	assert.Equal(t, "IDP Discovery Document", passed.FeatureName)
	assert.Equal(t, "Disc - Document contains keys", passed.ScenarioName)
	assert.Equal(t, "features/discovery.feature", passed.Path)

	failed := set["idp-token:refresh-expires"]
	assert.Equal(t, evidence.StatusFailed, failed.Status)
	assert.Equal(t, "expected 401", failed.Message)
	assert.Equal(t, "java.lang.AssertionError", failed.Type)

	// Error outcome without exception details is skipped.
	_, ok := set["x:y"]
	assert.False(t, ok)

	assert.Equal(t, evidence.StatusSkipped, set[":solo"].Status)
}

func TestIdentityJoinsNamespaceSegments(t *testing.T) {
	o := outcome{ID: "epic;feature;scenario"}
	assert.Equal(t, evidence.Identity("epic.feature:scenario"), o.identity())
}

func TestScanForLinks(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a1.json", passedOutcome)
	write(t, root, "b2.json", failedOutcome)

	links, err := New(nil).ScanForLinks(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"A_19874", "A_20457", "A_20591"}, links.RequirementIDs())

	id := evidence.Identity("idp-discovery-document:disc---document-contains-keys")
	assert.Equal(t, []evidence.Identity{id}, links.Identities("A_20591"))
	assert.Equal(t, "Disc - Document contains keys", links["A_19874"][id].ScenarioName)
}

func TestScanMissingRoot(t *testing.T) {
	set, err := New(nil).ScanForEvidence(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, set)
}
