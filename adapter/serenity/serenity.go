// Package serenity reads Serenity BDD outcome files, one JSON document per
// executed scenario.
//
// The scenario identity is derived from the semicolon separated "id" field:
// all segments but the last form the namespace (joined with '.'), the last
// segment is the member. For features this is "<feature id>:<scenario id>",
// the identity the cucumber link adapter produces.
package serenity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gematik/app-AfoReporter/adapter"
	"github.com/gematik/app-AfoReporter/evidence"
	"github.com/gematik/app-AfoReporter/requirements"
)

// AfoTagType is the tag type Serenity records for @Afo:<id> scenario tags.
const AfoTagType = "Afo"

// ignored are JSON files in the output directory that are not outcomes:
// the requirement feed and the machine readable report.
var ignored = map[string]bool{
	requirements.DefaultFeedFile: true,
	"aforeport.json":             true,
}

func init() {
	adapter.DefaultRegistry.RegisterEvidence(adapter.TagBased, func(logger *slog.Logger) adapter.EvidenceScanner {
		return New(logger)
	})
	adapter.DefaultRegistry.RegisterLink(adapter.TagRun, func(logger *slog.Logger) adapter.LinkScanner {
		return New(logger)
	})
	adapter.DefaultRegistry.RegisterEvidence(adapter.TagRun, func(logger *slog.Logger) adapter.EvidenceScanner {
		return New(logger)
	})
}

var errNoFailureCause = errors.New("unable to find failure/error details")

type failureCause struct {
	ErrorType string `json:"errorType"`
	Message   string `json:"message"`
}

type tag struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// outcome is the subset of a Serenity outcome document the reporter reads.
type outcome struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Result    string `json:"result"`
	UserStory struct {
		StoryName string `json:"storyName"`
		Path      string `json:"path"`
	} `json:"userStory"`
	Tags             []tag         `json:"tags"`
	Exception        *failureCause `json:"exception"`
	TestFailureCause *failureCause `json:"testFailureCause"`
}

func (o *outcome) identity() evidence.Identity {
	parts := strings.Split(o.ID, ";")
	last := len(parts) - 1
	return evidence.NewIdentity(strings.Join(parts[:last], "."), parts[last])
}

// Adapter reads Serenity outcome files. It serves as result adapter and,
// through the outcome tags, as link adapter.
type Adapter struct {
	logger *slog.Logger
}

// New creates a Serenity outcome adapter.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{logger: adapter.LoggerOrDefault(logger)}
}

// MapResult maps a Serenity result name to an outcome status.
func MapResult(result string) evidence.Status {
	switch result {
	case "FAILURE":
		return evidence.StatusFailed
	case "ERROR":
		return evidence.StatusError
	case "SUCCESS":
		return evidence.StatusPassed
	case "SKIPPED":
		return evidence.StatusSkipped
	default:
		return evidence.StatusUnknown
	}
}

// ScanForEvidence reads all outcome files directly inside root.
func (a *Adapter) ScanForEvidence(ctx context.Context, root string) (evidence.EvidenceSet, error) {
	set := evidence.EvidenceSet{}
	err := a.scan(ctx, root, func(path string, o *outcome) error {
		e, err := toEvidence(o)
		if err != nil {
			return err
		}
		e.Path = path
		if o.UserStory.Path != "" {
			e.Path = o.UserStory.Path
		}
		set.Put(e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// ScanForLinks collects the Afo tags of all outcome files directly inside root.
func (a *Adapter) ScanForLinks(ctx context.Context, root string) (evidence.LinkSet, error) {
	links := evidence.LinkSet{}
	err := a.scan(ctx, root, func(path string, o *outcome) error {
		for _, t := range o.Tags {
			if t.Type != AfoTagType || t.Name == "" {
				continue
			}
			links.Add(evidence.Link{
				Identity:      o.identity(),
				RequirementID: t.Name,
				FeatureName:   o.UserStory.StoryName,
				ScenarioName:  o.Title,
				Path:          path,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (a *Adapter) scan(ctx context.Context, root string, handle func(path string, o *outcome) error) error {
	if !adapter.CheckRoot(root, "serenity result", a.logger) {
		return nil
	}

	files, err := adapter.ListFiles(root, func(name string) bool {
		return strings.HasSuffix(name, ".json") && !ignored[name]
	})
	if err != nil {
		return err
	}

	a.logger.Info("Parsing serenity outcomes",
		slog.String("root", root),
		slog.Int("files", len(files)))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		o, err := readOutcome(path)
		if err == nil {
			err = handle(path, o)
		}
		if err != nil {
			a.logger.Warn("Failed to parse BDD outcome",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func readOutcome(path string) (*outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read outcome: %w", err)
	}
	var o outcome
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("decode outcome: %w", err)
	}
	if o.ID == "" {
		return nil, errors.New("outcome has no id")
	}
	return &o, nil
}

func toEvidence(o *outcome) (evidence.Evidence, error) {
	if o.Result == "" {
		return evidence.Evidence{}, fmt.Errorf("outcome %s has no result", o.ID)
	}
	e := evidence.Evidence{
		Identity:     o.identity(),
		Status:       MapResult(o.Result),
		Suite:        o.UserStory.StoryName,
		FeatureName:  o.UserStory.StoryName,
		ScenarioName: o.Title,
	}
	if e.Status == evidence.StatusFailed || e.Status == evidence.StatusError {
		cause := o.Exception
		if cause == nil {
			cause = o.TestFailureCause
		}
		if cause == nil {
			return evidence.Evidence{}, fmt.Errorf("%w in %s", errNoFailureCause, o.ID)
		}
		e.Message = cause.Message
		e.Type = cause.ErrorType
	}
	return e, nil
}
