// Package navigation enumerates the callables defined in a Ruby file and
// the line each one is reported at, the way runtime reflection would see
// them. It parses with tree-sitter, so it also knows every definition's
// true extent, which the sweep uses as a cross-check for the scanner.
package navigation

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"

	"github.com/kyrylo/fast-method-source/internal/source"
)

// Kind is the syntactic form of a callable.
type Kind string

const (
	KindClass           Kind = "class"
	KindModule          Kind = "module"
	KindMethod          Kind = "method"
	KindSingletonMethod Kind = "singleton_method"
	KindBlock           Kind = "block"
	KindLambda          Kind = "lambda"
)

// Kinds lists every kind a Navigator reports.
var Kinds = []Kind{KindClass, KindModule, KindMethod, KindSingletonMethod, KindBlock, KindLambda}

// Anonymous reports whether callables of this kind have no name.
func (k Kind) Anonymous() bool {
	return k == KindBlock || k == KindLambda
}

// Callable is one definition found in a file. Lines are 1-based.
type Callable struct {
	Name    string
	Kind    Kind
	File    string
	Line    int
	EndLine int
}

// Source converts c to the resolver's callable type.
func (c Callable) Source() source.Callable {
	if c.Kind.Anonymous() {
		return source.NewAnonymous(c.File, c.Line)
	}
	return source.NewNamed(c.Name, c.File, c.Line)
}

// DisplayName returns the name used in listings.
func (c Callable) DisplayName() string {
	return c.Source().DisplayName()
}

// Navigator parses Ruby sources.
type Navigator struct {
	language *sitter.Language
}

// New creates a Navigator for Ruby.
func New() *Navigator {
	return &Navigator{language: sitter.NewLanguage(ruby.Language())}
}

// ParseFile reads and parses a Ruby file.
func (n *Navigator) ParseFile(ctx context.Context, path string) ([]Callable, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return n.Parse(ctx, path, src)
}

// Parse returns the callables defined in src in source order. Files with
// syntax errors are still walked; tree-sitter recovers what it can.
func (n *Navigator) Parse(ctx context.Context, path string, src []byte) ([]Callable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(n.language); err != nil {
		return nil, fmt.Errorf("failed to set ruby language: %w", err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse ruby file: %s", path)
	}
	defer tree.Close()

	w := &walker{path: path, source: src}
	w.visit(tree.RootNode(), scope{})
	return w.found, nil
}

// scope is the lexical owner of the definitions being visited.
type scope struct {
	owner     string
	singleton bool // inside class << self
}

type walker struct {
	path   string
	source []byte
	found  []Callable
}

func (w *walker) visit(node *sitter.Node, sc scope) {
	if node == nil {
		return
	}

	inner := sc
	switch node.Kind() {
	case "class", "module":
		name := qualify(sc.owner, "::", w.text(node.ChildByFieldName("name")))
		kind := KindClass
		if node.Kind() == "module" {
			kind = KindModule
		}
		w.add(node, name, kind)
		inner = scope{owner: name}

	case "singleton_class":
		inner = scope{owner: sc.owner, singleton: true}

	case "method":
		sep := "#"
		if sc.singleton {
			sep = "."
		}
		w.add(node, qualify(sc.owner, sep, w.text(node.ChildByFieldName("name"))), KindMethod)

	case "singleton_method":
		name := w.text(node.ChildByFieldName("name"))
		receiver := w.text(node.ChildByFieldName("object"))
		if receiver == "self" {
			if sc.owner == "" {
				name = "self." + name
			} else {
				name = sc.owner + "." + name
			}
		} else {
			name = receiver + "." + name
		}
		w.add(node, name, KindSingletonMethod)

	case "lambda":
		w.add(node, "", KindLambda)

	case "block", "do_block":
		if parent := node.Parent(); parent == nil || parent.Kind() != "lambda" {
			w.add(node, "", KindBlock)
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		w.visit(node.Child(i), inner)
	}
}

func (w *walker) add(node *sitter.Node, name string, kind Kind) {
	w.found = append(w.found, Callable{
		Name:    name,
		Kind:    kind,
		File:    w.path,
		Line:    int(node.StartPosition().Row) + 1,
		EndLine: int(node.EndPosition().Row) + 1,
	})
}

func (w *walker) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(w.source[node.StartByte():node.EndByte()])
}

func qualify(owner, sep, name string) string {
	if owner == "" {
		return name
	}
	return owner + sep + name
}
