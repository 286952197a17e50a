// Package cucumber discovers requirement links in Gherkin feature files.
//
// A scenario covers a requirement when one of its own tags is "@Afo:<id>".
// Feature-level tags are not inherited by the scenarios. The linked identity
// is "<feature id>:<scenario id>", both derived from the names by ConvertToID.
package cucumber

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"

	"github.com/gematik/app-AfoReporter/adapter"
	"github.com/gematik/app-AfoReporter/evidence"
)

// TagPrefix marks a scenario tag that names a requirement.
const TagPrefix = "@Afo:"

func init() {
	adapter.DefaultRegistry.RegisterLink(adapter.TagBased, func(logger *slog.Logger) adapter.LinkScanner {
		return New(logger)
	})
}

// idReplacer maps characters that are not allowed in ids to '-'.
var idReplacer = strings.NewReplacer(
	" ", "-", ";", "-", ",", "-", ".", "-", "+", "-", "*", "-", "~", "-",
	`\`, "-", "/", "-", "!", "-", "$", "-", "(", "-", ")", "-",
	"[", "-", "]", "-", "{", "-", "}", "-",
)

// ConvertToID normalizes a feature or scenario name into an identity part.
func ConvertToID(name string) string {
	return strings.ToLower(idReplacer.Replace(name))
}

// Adapter extracts @Afo tags from feature files.
type Adapter struct {
	logger *slog.Logger
}

// New creates a feature file link adapter.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{logger: adapter.LoggerOrDefault(logger)}
}

// ScanForLinks walks root recursively and collects links from all .feature files.
func (a *Adapter) ScanForLinks(ctx context.Context, root string) (evidence.LinkSet, error) {
	links := evidence.LinkSet{}
	if !adapter.CheckRoot(root, "feature", a.logger) {
		return links, nil
	}

	a.logger.Info("Parsing cucumber scenarios", slog.String("root", root))

	err := adapter.WalkFiles(ctx, root, a.logger,
		func(name string) bool { return strings.HasSuffix(name, ".feature") },
		func(path string) {
			fileLinks, err := a.ParseFile(path)
			if err != nil {
				a.logger.Warn("Skipping feature file",
					slog.String("path", path),
					slog.String("error", err.Error()))
				return
			}
			links.Merge(fileLinks)
		})
	if err != nil {
		return nil, err
	}
	return links, nil
}

// ParseFile extracts the links of a single feature file.
func (a *Adapter) ParseFile(path string) (evidence.LinkSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	doc, err := gherkin.ParseGherkinDocument(f, (&messages.Incrementing{}).NewId)
	if err != nil {
		return nil, fmt.Errorf("parse feature: %w", err)
	}

	links := evidence.LinkSet{}
	if doc.Feature == nil {
		return links, nil
	}

	feature := doc.Feature
	for _, scenario := range scenarios(feature.Children) {
		for _, tag := range scenario.Tags {
			if !strings.HasPrefix(tag.Name, TagPrefix) {
				continue
			}
			id := strings.TrimPrefix(tag.Name, TagPrefix)
			if id == "" {
				continue
			}
			links.Add(evidence.Link{
				Identity:      evidence.NewIdentity(ConvertToID(feature.Name), ConvertToID(scenario.Name)),
				RequirementID: id,
				FeatureName:   feature.Name,
				ScenarioName:  scenario.Name,
				Path:          path,
			})
		}
	}
	return links, nil
}

// scenarios returns the scenarios and scenario outlines of a feature,
// including those grouped in rules. Backgrounds are not scenarios.
func scenarios(children []*messages.FeatureChild) []*messages.Scenario {
	var out []*messages.Scenario
	for _, child := range children {
		switch {
		case child.Scenario != nil:
			out = append(out, child.Scenario)
		case child.Rule != nil:
			for _, rc := range child.Rule.Children {
				if rc.Scenario != nil {
					out = append(out, rc.Scenario)
				}
			}
		}
	}
	return out
}
