// Package extract implements Pass 1: walking a file's syntax tree and
// emitting declaration and test records. No call is resolved here.
package extract

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/SakuraCase/perchwork-sub001/internal/graph"
	"github.com/SakuraCase/perchwork-sub001/internal/parser"
	"github.com/SakuraCase/perchwork-sub001/internal/registry"
)

// Result holds the declarations and tests found in one file.
type Result struct {
	Items []*graph.ExtractedItem
	Tests []*graph.TestInfo
}

// File parses the given content and extracts its items and tests.
func File(ctx context.Context, path string, content []byte) (*Result, error) {
	src, err := parser.Parse(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return Extract(src, path), nil
}

// Extract walks the parsed tree and returns all declarations found
// anywhere in it, recursively. Functions lexically nested inside an
// implementation block are extracted only as methods of that block, never
// duplicated as free functions.
func Extract(src *parser.Source, path string) *Result {
	e := &extractor{src: src, fileStem: graph.FileStem(path)}
	e.walk(src.Root())
	return &Result{Items: e.items, Tests: e.tests}
}

type extractor struct {
	src      *parser.Source
	fileStem string
	items    []*graph.ExtractedItem
	tests    []*graph.TestInfo
}

func (e *extractor) walk(n *sitter.Node) {
	switch n.Type() {
	case "struct_item":
		e.extractStruct(n)
	case "enum_item":
		e.extractEnum(n)
	case "trait_item":
		e.extractTrait(n)
	case "function_item":
		e.extractFunction(n)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		e.walk(n.NamedChild(i))
	}
}

func (e *extractor) extractStruct(n *sitter.Node) {
	name := e.src.FieldText(n, "name")
	if name == "" {
		return // no resolvable name node, drop silently
	}

	var fields []graph.Field
	if body := e.src.Field(n, "body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			decl := body.NamedChild(i)
			if decl.Type() != "field_declaration" {
				continue
			}
			fname := e.src.FieldText(decl, "name")
			if fname == "" {
				continue
			}
			fields = append(fields, graph.Field{
				Name: fname,
				Type: parser.CollapseWhitespace(e.src.FieldText(decl, "type")),
			})
		}
	}

	e.items = append(e.items, &graph.ExtractedItem{
		ID:         graph.ItemID(e.fileStem, "", name, graph.KindStruct),
		Kind:       graph.KindStruct,
		Name:       name,
		LineStart:  e.src.Line(n),
		LineEnd:    e.src.EndLine(n),
		Visibility: visibility(e.src.VisibilityText(n)),
		Signature:  e.signature(n),
		Fields:     fields,
	})
}

func (e *extractor) extractEnum(n *sitter.Node) {
	name := e.src.FieldText(n, "name")
	if name == "" {
		return
	}

	var variants []graph.Field
	if body := e.src.Field(n, "body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			v := body.NamedChild(i)
			if v.Type() != "enum_variant" {
				continue
			}
			vname := e.src.FieldText(v, "name")
			if vname == "" {
				continue
			}
			variants = append(variants, graph.Field{
				Name: vname,
				Type: e.variantPayload(v),
			})
		}
	}

	e.items = append(e.items, &graph.ExtractedItem{
		ID:         graph.ItemID(e.fileStem, "", name, graph.KindEnum),
		Kind:       graph.KindEnum,
		Name:       name,
		LineStart:  e.src.Line(n),
		LineEnd:    e.src.EndLine(n),
		Visibility: visibility(e.src.VisibilityText(n)),
		Signature:  e.signature(n),
		Fields:     variants,
	})
}

// variantPayload returns the payload text of an enum variant, or "" for
// unit variants.
func (e *extractor) variantPayload(v *sitter.Node) string {
	for i := 0; i < int(v.NamedChildCount()); i++ {
		child := v.NamedChild(i)
		switch child.Type() {
		case "ordered_field_declaration_list", "field_declaration_list":
			return parser.CollapseWhitespace(e.src.Text(child))
		}
	}
	return ""
}

func (e *extractor) extractTrait(n *sitter.Node) {
	name := e.src.FieldText(n, "name")
	if name == "" {
		return
	}

	e.items = append(e.items, &graph.ExtractedItem{
		ID:         graph.ItemID(e.fileStem, "", name, graph.KindTrait),
		Kind:       graph.KindTrait,
		Name:       name,
		LineStart:  e.src.Line(n),
		LineEnd:    e.src.EndLine(n),
		Visibility: visibility(e.src.VisibilityText(n)),
		Signature:  e.signature(n),
	})
}

func (e *extractor) extractFunction(n *sitter.Node) {
	name := e.src.FuncName(n)
	if name == "" {
		return
	}

	implFor := ""
	traitName := ""
	kind := graph.KindFunction
	if impl := parser.EnclosingImpl(n); impl != nil {
		implFor = registry.BaseType(e.src.ImplType(impl))
		traitName = registry.BaseType(e.src.ImplTrait(impl))
		kind = graph.KindMethod
	}

	isAsync := e.src.IsAsyncFn(n)

	if e.src.HasTestAttribute(n) {
		e.tests = append(e.tests, &graph.TestInfo{
			ID:        graph.TestID(e.fileStem, implFor, name),
			Name:      name,
			LineStart: e.src.Line(n),
			IsAsync:   isAsync,
		})
		return
	}

	e.items = append(e.items, &graph.ExtractedItem{
		ID:         graph.ItemID(e.fileStem, implFor, name, kind),
		Kind:       kind,
		Name:       name,
		LineStart:  e.src.Line(n),
		LineEnd:    e.src.EndLine(n),
		Visibility: visibility(e.src.VisibilityText(n)),
		Signature:  e.signature(n),
		IsAsync:    isAsync,
		ImplFor:    implFor,
		TraitName:  traitName,
	})
}

// signature slices the source between the declaration's start and the
// opening brace of its body. Single-line declarations collapse to one
// trimmed string; multi-line declarations keep their lines, indentation
// normalized, joined by newlines.
func (e *extractor) signature(n *sitter.Node) string {
	end := n.EndByte()
	if body := e.src.Field(n, "body"); body != nil {
		end = body.StartByte()
	}
	text := e.src.Slice(n.StartByte(), end)
	text = strings.TrimRight(text, " \t\n{;")

	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		return strings.TrimSpace(text)
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func visibility(text string) graph.Visibility {
	switch {
	case text == "pub":
		return graph.VisPublic
	case strings.HasPrefix(text, "pub("):
		return graph.VisCrate
	default:
		return graph.VisPrivate
	}
}
