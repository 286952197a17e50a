// Package javasrc discovers requirement links in Java test sources.
//
// A test method covers a requirement when it carries an annotation named Afo
// with a single string argument holding the requirement id:
//
//	@Test
//	@Afo("A_20457")
//	void refreshTokenExpires() { ... }
//
// The linked identity is "<fully qualified class>:<method>", which is the
// classname/name pair JUnit writes into its XML reports.
package javasrc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/gematik/app-AfoReporter/adapter"
	"github.com/gematik/app-AfoReporter/evidence"
)

// AnnotationName is the simple name of the requirement annotation.
const AnnotationName = "Afo"

func init() {
	adapter.DefaultRegistry.RegisterLink(adapter.SourceAnnotated, func(logger *slog.Logger) adapter.LinkScanner {
		return New(logger)
	})
}

var errInvalidAnnotation = errors.New("unsupported Afo annotation")

// Adapter extracts @Afo links from Java sources using tree-sitter.
type Adapter struct {
	logger *slog.Logger
}

// New creates a Java source link adapter.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{logger: adapter.LoggerOrDefault(logger)}
}

// newParser returns a Java parser. The caller must Close it.
func newParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return p
}

// ScanForLinks walks root recursively and collects links from all .java files.
func (a *Adapter) ScanForLinks(ctx context.Context, root string) (evidence.LinkSet, error) {
	links := evidence.LinkSet{}
	if !adapter.CheckRoot(root, "test source", a.logger) {
		return links, nil
	}

	a.logger.Info("Parsing test source code", slog.String("root", root))

	parser := newParser()
	defer parser.Close()

	files := 0
	err := adapter.WalkFiles(ctx, root, a.logger,
		func(name string) bool { return strings.HasSuffix(name, ".java") },
		func(path string) {
			fileLinks, err := parseFile(ctx, parser, path)
			if err != nil {
				a.logger.Warn("Skipping test source",
					slog.String("path", path),
					slog.String("error", err.Error()))
				return
			}
			files++
			links.Merge(fileLinks)
		})
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Test source parsed",
		slog.String("root", root),
		slog.Int("files", files),
		slog.Int("requirements", len(links)))
	return links, nil
}

// ParseFile extracts the links of a single Java file.
// A file with syntax errors or a malformed @Afo annotation yields an error
// and no links.
func (a *Adapter) ParseFile(ctx context.Context, path string) (evidence.LinkSet, error) {
	parser := newParser()
	defer parser.Close()
	return parseFile(ctx, parser, path)
}

func parseFile(ctx context.Context, parser *sitter.Parser, path string) (evidence.LinkSet, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("parse file: syntax error")
	}

	w := &fileWalker{
		content: content,
		path:    path,
		pkg:     packageName(root, content),
		links:   evidence.LinkSet{},
	}
	if err := w.walk(root, nil); err != nil {
		return nil, err
	}
	return w.links, nil
}

type fileWalker struct {
	content []byte
	path    string
	pkg     string
	links   evidence.LinkSet
}

func (w *fileWalker) text(n *sitter.Node) string {
	return n.Content(w.content)
}

func (w *fileWalker) walk(node *sitter.Node, classes []string) error {
	switch node.Type() {
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return nil
		}
		nested := append(append([]string(nil), classes...), w.text(nameNode))
		if body := node.ChildByFieldName("body"); body != nil {
			return w.walkChildren(body, nested)
		}
		return nil

	case "method_declaration":
		if len(classes) == 0 {
			return nil
		}
		return w.method(node, classes)
	}

	return w.walkChildren(node, classes)
}

func (w *fileWalker) walkChildren(node *sitter.Node, classes []string) error {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if err := w.walk(node.NamedChild(i), classes); err != nil {
			return err
		}
	}
	return nil
}

func (w *fileWalker) method(node *sitter.Node, classes []string) error {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	method := w.text(nameNode)
	class := strings.Join(classes, ".")
	if w.pkg != "" {
		class = w.pkg + "." + class
	}

	for _, ann := range annotations(node) {
		annName := ann.ChildByFieldName("name")
		if annName == nil || !isAfoAnnotation(w.text(annName)) {
			continue
		}
		id, ok := w.requirementID(ann)
		if !ok {
			return fmt.Errorf("%w in %s:%s", errInvalidAnnotation, class, method)
		}
		w.links.Add(evidence.Link{
			Identity:      evidence.NewIdentity(class, method),
			RequirementID: id,
			Path:          w.path,
		})
	}
	return nil
}

// requirementID returns the single string literal argument of an annotation.
func (w *fileWalker) requirementID(ann *sitter.Node) (string, bool) {
	if ann.Type() != "annotation" {
		return "", false
	}
	args := ann.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 1 {
		return "", false
	}
	arg := args.NamedChild(0)
	if arg.Type() != "string_literal" {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(w.text(arg), `"`), `"`)
	return id, id != ""
}

// annotations returns the annotation nodes in a declaration's modifiers.
func annotations(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			mod := child.Child(j)
			if mod.Type() == "annotation" || mod.Type() == "marker_annotation" {
				out = append(out, mod)
			}
		}
	}
	return out
}

func isAfoAnnotation(name string) bool {
	return name == AnnotationName || strings.HasSuffix(name, "."+AnnotationName)
}

func packageName(root *sitter.Node, content []byte) string {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "package_declaration" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			n := child.NamedChild(j)
			if n.Type() == "scoped_identifier" || n.Type() == "identifier" {
				return n.Content(content)
			}
		}
	}
	return ""
}
