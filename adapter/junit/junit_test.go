package junit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gematik/app-AfoReporter/evidence"
)

const surefireReport = `<?xml version="1.0" encoding="UTF-8"?>
<testsuite name="de.gematik.idp.tests.TokenTest" tests="6" failures="1" errors="1" skipped="1">
  <properties>
    <property name="java.version" value="11"/>
  </properties>
  <testcase name="refreshTokenExpires" classname="de.gematik.idp.tests.TokenTest" time="0.01"/>
  <testcase name="accessTokenSigned" classname="de.gematik.idp.tests.TokenTest" time="0.2">
    <failure message="expected true" type="org.opentest4j.AssertionFailedError">
      at TokenTest.accessTokenSigned(TokenTest.java:42)
    </failure>
    <system-out>signing with ES256</system-out>
  </testcase>
  <testcase name="serverDown" classname="de.gematik.idp.tests.TokenTest">
    <error message="connection refused" type="java.net.ConnectException">stack</error>
    <system-err>boom</system-err>
  </testcase>
  <testcase name="later" classname="de.gematik.idp.tests.TokenTest">
    <skipped message="disabled"/>
  </testcase>
  <testcase name="flaky" classname="de.gematik.idp.tests.TokenTest">
    <rerunFailure message="first attempt"/>
  </testcase>
  <testcase name="chatty" classname="de.gematik.idp.tests.TokenTest">
    <system-out>hello</system-out>
  </testcase>
</testsuite>
`

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParse(t *testing.T) {
	set, err := Parse(strings.NewReader(surefireReport))
	require.NoError(t, err)
	require.Len(t, set, 6)

	id := func(m string) evidence.Identity { return evidence.NewIdentity("de.gematik.idp.tests.TokenTest", m) }

	tests := []struct {
		member string
		status evidence.Status
	}{
		{"refreshTokenExpires", evidence.StatusPassed},
		{"accessTokenSigned", evidence.StatusFailed},
		{"serverDown", evidence.StatusError},
		{"later", evidence.StatusSkipped},
		{"flaky", evidence.StatusUnknown},
		{"chatty", evidence.StatusPassed},
	}
	for _, tt := range tests {
		t.Run(tt.member, func(t *testing.T) {
			e, ok := set[id(tt.member)]
			require.True(t, ok)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, "de.gematik.idp.tests.TokenTest", e.Suite)
		})
	}

	failed := set[id("accessTokenSigned")]
	assert.Equal(t, "expected true", failed.Message)
	assert.Equal(t, "org.opentest4j.AssertionFailedError", failed.Type)
	assert.Equal(t, "at TokenTest.accessTokenSigned(TokenTest.java:42)", failed.Detail)
	assert.Equal(t, "signing with ES256", failed.SystemOut)

	errored := set[id("serverDown")]
	assert.Equal(t, "connection refused", errored.Message)
	assert.Equal(t, "boom", errored.SystemErr)

	assert.Equal(t, "disabled", set[id("later")].Message)
}

func TestParseTestsuitesWrapper(t *testing.T) {
	doc := `<testsuites>
  <testsuite name="A"><testcase classname="x.A" name="one"/></testsuite>
  <testsuite name="B"><testcase classname="x.B" name="two"><failure/></testcase></testsuite>
</testsuites>`

	set, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, evidence.StatusPassed, set["x.A:one"].Status)
	assert.Equal(t, "A", set["x.A:one"].Suite)
	assert.Equal(t, evidence.StatusFailed, set["x.B:two"].Status)
	assert.Equal(t, "B", set["x.B:two"].Suite)
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	for name, doc := range map[string]string{
		"truncated":  `<testsuite name="A"><testcase classname="x" name="y">`,
		"no suite":   `<report><entry/></report>`,
		"not xml":    `{"id": "json"}`,
		"empty file": ``,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestScanForEvidence(t *testing.T) {
	root := t.TempDir()
	write(t, root, "TEST-de.gematik.idp.tests.TokenTest.xml", surefireReport)
	write(t, root, "TEST-broken.xml", "<testsuite")
	write(t, root, "summary.xml", `<testsuite><testcase classname="ignored" name="x"/></testsuite>`)
	write(t, root, "nested/TEST-deep.xml", `<testsuite><testcase classname="deep" name="x"/></testsuite>`)

	set, err := New(nil).ScanForEvidence(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, set, 6)
	_, ok := set["ignored:x"]
	assert.False(t, ok)
	_, ok = set["deep:x"]
	assert.False(t, ok)
}

func TestScanForEvidenceLaterFileWins(t *testing.T) {
	root := t.TempDir()
	write(t, root, "TEST-a.xml", `<testsuite name="first"><testcase classname="x.Y" name="z"><failure/></testcase></testsuite>`)
	write(t, root, "TEST-b.xml", `<testsuite name="second"><testcase classname="x.Y" name="z"/></testsuite>`)

	set, err := New(nil).ScanForEvidence(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, evidence.StatusPassed, set["x.Y:z"].Status)
	assert.Equal(t, "second", set["x.Y:z"].Suite)
}

func TestScanForEvidenceMissingRoot(t *testing.T) {
	set, err := New(nil).ScanForEvidence(context.Background(), filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, set)
}
