// Package parser wraps the tree-sitter Rust grammar behind a small adapter:
// file text in, concrete syntax tree with named-field child access out.
package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// Source pairs a parsed syntax tree with the file content it came from.
// All node text accessors live here so callers never slice content directly.
type Source struct {
	Tree    *sitter.Tree
	Content []byte
}

// Parse parses Rust source text into a syntax tree.
func Parse(ctx context.Context, content []byte) (*Source, error) {
	p := sitter.NewParser()
	p.SetLanguage(rust.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}
	return &Source{Tree: tree, Content: content}, nil
}

// Root returns the tree's root node.
func (s *Source) Root() *sitter.Node {
	return s.Tree.RootNode()
}

// Text returns the source text of a node.
func (s *Source) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(s.Content)
}

// Field returns the named-field child of n, or nil.
func (s *Source) Field(n *sitter.Node, name string) *sitter.Node {
	if n == nil {
		return nil
	}
	return n.ChildByFieldName(name)
}

// FieldText returns the source text of a named-field child, or "".
func (s *Source) FieldText(n *sitter.Node, name string) string {
	return s.Text(s.Field(n, name))
}

// Line returns the 1-based start line of a node.
func (s *Source) Line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// EndLine returns the 1-based end line of a node.
func (s *Source) EndLine(n *sitter.Node) int {
	return int(n.EndPoint().Row) + 1
}

// Slice returns the raw source text between two byte offsets.
func (s *Source) Slice(start, end uint32) string {
	if start >= end || int(end) > len(s.Content) {
		return ""
	}
	return string(s.Content[start:end])
}

// Contains reports whether inner lies within outer's byte range. It is used
// for branch-subtree membership tests where pointer identity across separate
// traversals is not reliable.
func Contains(outer, inner *sitter.Node) bool {
	if outer == nil || inner == nil {
		return false
	}
	return inner.StartByte() >= outer.StartByte() && inner.EndByte() <= outer.EndByte()
}

// CollapseWhitespace normalizes internal whitespace and newlines to single
// spaces, used for call-target and condition text.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
