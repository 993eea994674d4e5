package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// EnclosingImpl walks parent nodes from n until it reaches an
// implementation block or the tree root. It returns the impl_item node, or
// nil when n is not lexically inside one.
func EnclosingImpl(n *sitter.Node) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == "impl_item" {
			return p
		}
	}
	return nil
}

// ImplType returns the text of the implementing type of an impl block
// ("Foo" in both `impl Foo` and `impl Trait for Foo`).
func (s *Source) ImplType(impl *sitter.Node) string {
	return s.FieldText(impl, "type")
}

// ImplTrait returns the trait name of a trait impl block, or "" for an
// inherent impl.
func (s *Source) ImplTrait(impl *sitter.Node) string {
	return s.FieldText(impl, "trait")
}

// FuncName returns the declared name of a function_item, or "".
func (s *Source) FuncName(fn *sitter.Node) string {
	return s.FieldText(fn, "name")
}

// VisibilityText returns the text of a declaration's leading visibility
// modifier, or "" when the declaration carries none.
func (s *Source) VisibilityText(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "visibility_modifier" {
			return s.Text(child)
		}
	}
	return ""
}

// IsAsyncFn reports whether a function_item carries the async modifier.
func (s *Source) IsAsyncFn(fn *sitter.Node) bool {
	for i := 0; i < int(fn.ChildCount()); i++ {
		child := fn.Child(i)
		if child.Type() == "function_modifiers" {
			return strings.Contains(s.Text(child), "async")
		}
		if !child.IsNamed() && s.Text(child) == "async" {
			return true
		}
	}
	return false
}

// HasTestAttribute reports whether a function_item is annotated with a
// recognized test attribute. Attribute items are siblings preceding the
// function in its parent; comments between attributes and the function are
// skipped.
func (s *Source) HasTestAttribute(fn *sitter.Node) bool {
	parent := fn.Parent()
	if parent == nil {
		return false
	}

	idx := -1
	for i := 0; i < int(parent.ChildCount()); i++ {
		if parent.Child(i) == fn {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	for j := idx - 1; j >= 0; j-- {
		prev := parent.Child(j)
		switch prev.Type() {
		case "attribute_item":
			text := s.Text(prev)
			if strings.Contains(text, "#[test]") || strings.Contains(text, "#[tokio::test]") {
				return true
			}
		case "line_comment", "block_comment":
			continue
		default:
			return false
		}
	}
	return false
}

// UnwrapCallFunction returns the effective function node of a
// call_expression, unwrapping turbofish generic_function wrappers.
func (s *Source) UnwrapCallFunction(call *sitter.Node) *sitter.Node {
	fn := s.Field(call, "function")
	if fn != nil && fn.Type() == "generic_function" {
		fn = s.Field(fn, "function")
	}
	return fn
}

// SplitScoped splits a scoped path like "foo::Bar::new" into its qualifier
// ("foo::Bar") and final segment ("new").
func SplitScoped(path string) (qualifier, last string) {
	i := strings.LastIndex(path, "::")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+2:]
}
