// Package junit reads test outcomes from JUnit XML reports as written by
// Maven Surefire and Failsafe.
//
// Only files named TEST-*.xml directly inside a result root are read. Every
// testcase element of a testsuite becomes one evidence record keyed by
// "<classname>:<name>".
package junit

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gematik/app-AfoReporter/adapter"
	"github.com/gematik/app-AfoReporter/evidence"
)

// ReportPattern matches the JUnit report file names read by the adapter.
const ReportPattern = "TEST-*.xml"

func init() {
	adapter.DefaultRegistry.RegisterEvidence(adapter.SourceAnnotated, func(logger *slog.Logger) adapter.EvidenceScanner {
		return New(logger)
	})
}

type testSuite struct {
	Name   string      `xml:"name,attr"`
	Cases  []testCase  `xml:"testcase"`
	Suites []testSuite `xml:"testsuite"`
}

type testCase struct {
	Name      string    `xml:"name,attr"`
	ClassName string    `xml:"classname,attr"`
	Details   []element `xml:",any"`
}

type element struct {
	XMLName xml.Name
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Text    string `xml:",chardata"`
}

// Adapter reads JUnit XML reports.
type Adapter struct {
	logger *slog.Logger
}

// New creates a JUnit report adapter.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{logger: adapter.LoggerOrDefault(logger)}
}

// ScanForEvidence reads all reports directly inside root. Subdirectories are
// not searched. Reports that cannot be parsed are logged and skipped.
func (a *Adapter) ScanForEvidence(ctx context.Context, root string) (evidence.EvidenceSet, error) {
	set := evidence.EvidenceSet{}
	if !adapter.CheckRoot(root, "test result", a.logger) {
		return set, nil
	}

	files, err := adapter.ListFiles(root, isReport)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Parsing JUnit results",
		slog.String("root", root),
		slog.Int("files", len(files)))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileSet, err := ParseFile(path)
		if err != nil {
			a.logger.Warn("Failure while parsing result file",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		set.Merge(fileSet)
	}
	return set, nil
}

func isReport(name string) bool {
	ok, _ := doublestar.Match(ReportPattern, name)
	return ok
}

// ParseFile reads the evidence of a single JUnit report.
func ParseFile(path string) (evidence.EvidenceSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	set, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return set, nil
}

// Parse reads the evidence of all testsuite elements in r, wherever they
// appear in the document.
func Parse(r io.Reader) (evidence.EvidenceSet, error) {
	set := evidence.EvidenceSet{}
	dec := xml.NewDecoder(r)
	sawSuite := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "testsuite" {
			continue
		}
		var suite testSuite
		if err := dec.DecodeElement(&suite, &start); err != nil {
			return nil, err
		}
		sawSuite = true
		addSuite(set, suite)
	}
	if !sawSuite {
		return nil, errors.New("no testsuite element")
	}
	return set, nil
}

func addSuite(set evidence.EvidenceSet, suite testSuite) {
	for _, tc := range suite.Cases {
		e := caseEvidence(tc)
		e.Suite = suite.Name
		set.Put(e)
	}
	for _, nested := range suite.Suites {
		addSuite(set, nested)
	}
}

// caseEvidence maps a testcase to its outcome. A testcase without child
// elements passed. Child elements apply in document order; captured output
// does not change the status.
func caseEvidence(tc testCase) evidence.Evidence {
	e := evidence.Evidence{
		Identity: evidence.NewIdentity(tc.ClassName, tc.Name),
		Status:   evidence.StatusPassed,
	}
	for _, d := range tc.Details {
		switch d.XMLName.Local {
		case "failure":
			e.Status = evidence.StatusFailed
		case "error":
			e.Status = evidence.StatusError
		case "skipped":
			e.Status = evidence.StatusSkipped
		case "system-out":
			e.SystemOut = d.Text
			continue
		case "system-err":
			e.SystemErr = d.Text
			continue
		default:
			e.Status = evidence.StatusUnknown
			continue
		}
		e.Message = d.Message
		e.Type = d.Type
		e.Detail = strings.TrimSpace(d.Text)
	}
	return e
}
