// Package resolve implements Pass 2: walking function bodies, tracking
// variable types per scope, and emitting call edges with control-flow
// context. Receiver types are resolved heuristically; a call whose receiver
// cannot be typed becomes an UnresolvedEdge with a diagnostic reason rather
// than a guessed target.
package resolve

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/SakuraCase/perchwork-sub001/internal/graph"
	"github.com/SakuraCase/perchwork-sub001/internal/parser"
	"github.com/SakuraCase/perchwork-sub001/internal/registry"
)

const receiverTextLimit = 60

// Result holds the call edges found in one file. Edge targets are textual
// at this stage; the linker maps them to item ids.
type Result struct {
	Edges      []*graph.CallEdge
	Unresolved []*graph.UnresolvedEdge
}

// File parses the given content and resolves the calls in every function
// body, using the whole-codebase type registry built after Pass 1.
func File(ctx context.Context, path string, content []byte, reg *registry.TypeRegistry) (*Result, error) {
	src, err := parser.Parse(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	return Resolve(src, path, reg), nil
}

// Resolve walks every function and method body in the parsed tree. The
// registry is read-only here; it must be fully built before any call.
func Resolve(src *parser.Source, path string, reg *registry.TypeRegistry) *Result {
	r := &resolver{src: src, path: path, fileStem: graph.FileStem(path), reg: reg}
	r.walk(src.Root())
	return &Result{Edges: r.edges, Unresolved: r.unresolved}
}

type resolver struct {
	src      *parser.Source
	path     string
	fileStem string
	reg      *registry.TypeRegistry

	edges      []*graph.CallEdge
	unresolved []*graph.UnresolvedEdge
}

func (r *resolver) walk(n *sitter.Node) {
	if n.Type() == "function_item" {
		r.resolveFunction(n)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		r.walk(n.NamedChild(i))
	}
}

// resolveFunction seeds a scope from the function's parameters (and self
// type, for methods) and walks the body for call expressions. The from-id
// mirrors Pass 1's identity rules exactly, including tests as edge sources.
func (r *resolver) resolveFunction(fn *sitter.Node) {
	name := r.src.FuncName(fn)
	if name == "" {
		return
	}

	implFor := ""
	kind := graph.KindFunction
	if impl := parser.EnclosingImpl(fn); impl != nil {
		implFor = registry.BaseType(r.src.ImplType(impl))
		kind = graph.KindMethod
	}

	var fromID string
	if r.src.HasTestAttribute(fn) {
		fromID = graph.TestID(r.fileStem, implFor, name)
	} else {
		fromID = graph.ItemID(r.fileStem, implFor, name, kind)
	}

	sc := newScope(implFor)
	r.seedParams(fn, sc)

	body := r.src.Field(fn, "body")
	if body == nil {
		return
	}
	r.walkBody(body, fn, fromID, implFor, sc)
}

func (r *resolver) seedParams(fn *sitter.Node, sc *scope) {
	params := r.src.Field(fn, "parameters")
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != "parameter" {
			continue
		}
		pat := r.src.Field(p, "pattern")
		if pat == nil || pat.Type() != "identifier" {
			continue
		}
		sc.bind(r.src.Text(pat), registry.BaseType(r.src.FieldText(p, "type")))
	}
}

// walkBody recursively visits a function body. Nested function items are
// skipped: the outer walk gives them their own scope and from-id.
func (r *resolver) walkBody(n *sitter.Node, fn *sitter.Node, fromID, implFor string, sc *scope) {
	switch n.Type() {
	case "function_item":
		return
	case "let_declaration":
		r.trackLet(n, sc)
	case "call_expression":
		r.handleCall(n, fn, fromID, implFor, sc)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		r.walkBody(n.NamedChild(i), fn, fromID, implFor, sc)
	}
}

// trackLet updates the scope for a let binding, preferring an explicit type
// annotation, then the registry's recorded return type for a
// `Type::method(...)` initializer, then the factory-call heuristic of
// taking the qualifying type itself. Bindings that defeat all three are
// still recorded, with an empty type, so later lookups can distinguish an
// unknown type from an unknown name.
func (r *resolver) trackLet(n *sitter.Node, sc *scope) {
	pat := r.src.Field(n, "pattern")
	if pat == nil || pat.Type() != "identifier" {
		return
	}
	name := r.src.Text(pat)

	if ann := r.src.Field(n, "type"); ann != nil {
		sc.bind(name, registry.BaseType(r.src.Text(ann)))
		return
	}

	sc.bind(name, r.inferInitializer(r.src.Field(n, "value")))
}

// inferInitializer infers the type of a let initializer expression, or ""
// when no heuristic applies.
func (r *resolver) inferInitializer(value *sitter.Node) string {
	if value == nil || value.Type() != "call_expression" {
		return ""
	}
	fnNode := r.src.UnwrapCallFunction(value)
	if fnNode == nil {
		return ""
	}

	switch fnNode.Type() {
	case "scoped_identifier":
		qualifier, method := parser.SplitScoped(r.src.Text(fnNode))
		qt := registry.BaseType(qualifier)
		if rt, ok := r.reg.ReturnType(qt, method); ok {
			return rt
		}
		return qt
	case "identifier":
		// Free function in the same file: the registry keys these by file stem.
		if rt, ok := r.reg.ReturnType(r.fileStem, r.src.Text(fnNode)); ok {
			return rt
		}
	}
	return ""
}

func (r *resolver) handleCall(call *sitter.Node, fn *sitter.Node, fromID, implFor string, sc *scope) {
	fnNode := r.src.UnwrapCallFunction(call)
	if fnNode == nil {
		return
	}

	switch fnNode.Type() {
	case "identifier":
		r.addEdge(fromID, r.src.Text(fnNode), call, fn)
	case "scoped_identifier":
		target := parser.CollapseWhitespace(r.src.Text(fnNode))
		if implFor != "" && strings.HasPrefix(target, "Self::") {
			target = implFor + strings.TrimPrefix(target, "Self")
		}
		r.addEdge(fromID, target, call, fn)
	case "field_expression":
		r.handleMethodCall(call, fnNode, fn, fromID, sc)
	}
}

func (r *resolver) handleMethodCall(call, fnNode *sitter.Node, fn *sitter.Node, fromID string, sc *scope) {
	method := r.src.FieldText(fnNode, "field")
	recv := r.src.Field(fnNode, "value")
	if method == "" || recv == nil {
		return
	}

	recvType, reason := r.receiverType(recv, sc)
	if reason != "" {
		text := parser.CollapseWhitespace(r.src.Text(recv))
		if len(text) > receiverTextLimit {
			text = text[:receiverTextLimit]
		}
		r.unresolved = append(r.unresolved, &graph.UnresolvedEdge{
			From:         fromID,
			File:         r.path,
			Line:         r.src.Line(call),
			ReceiverType: recv.Type(),
			ReceiverText: text,
			Method:       method,
			Reason:       reason,
			Context:      r.callContext(call, fn),
		})
		return
	}
	r.addEdge(fromID, recvType+"::"+method, call, fn)
}

// receiverType resolves the type of a method-call receiver. The resolution
// order is fixed; the first applicable rule wins:
//
//  1. bare identifier: scope lookup
//  2. self: the enclosing impl type
//  3. field access x.f: registry field type of self or a known variable
//  4. qualified call Type::method(...): registry return type
//  5. chained method call recv.inner(...): resolve recv, then the
//     registry return type of inner on it
func (r *resolver) receiverType(recv *sitter.Node, sc *scope) (string, graph.UnresolvedReason) {
	switch recv.Type() {
	case "identifier":
		t, ok := sc.lookup(r.src.Text(recv))
		if !ok {
			return "", graph.ReasonVariableNotInScope
		}
		if t == "" {
			return "", graph.ReasonTypeLookupFailed
		}
		return t, ""

	case "self":
		if sc.selfType == "" {
			return "", graph.ReasonSelfTypeUnknown
		}
		return sc.selfType, ""

	case "field_expression":
		return r.fieldReceiverType(recv, sc)

	case "call_expression":
		return r.callReceiverType(recv, sc)
	}
	return "", graph.ReasonUnsupportedReceiver
}

func (r *resolver) fieldReceiverType(recv *sitter.Node, sc *scope) (string, graph.UnresolvedReason) {
	base := r.src.Field(recv, "value")
	field := r.src.FieldText(recv, "field")
	if base == nil || field == "" {
		return "", graph.ReasonUnsupportedReceiver
	}

	switch base.Type() {
	case "self":
		if sc.selfType == "" {
			return "", graph.ReasonSelfTypeUnknown
		}
		if ft, ok := r.reg.FieldType(sc.selfType, field); ok {
			return ft, ""
		}
		return "", graph.ReasonSelfTypeLookupFailed
	case "identifier":
		vt, ok := sc.lookup(r.src.Text(base))
		if !ok {
			return "", graph.ReasonVariableNotInScope
		}
		if vt == "" {
			return "", graph.ReasonTypeLookupFailed
		}
		if ft, ok := r.reg.FieldType(vt, field); ok {
			return ft, ""
		}
		return "", graph.ReasonFieldTypeUnknown
	}
	return "", graph.ReasonUnsupportedReceiver
}

func (r *resolver) callReceiverType(recv *sitter.Node, sc *scope) (string, graph.UnresolvedReason) {
	fnNode := r.src.UnwrapCallFunction(recv)
	if fnNode == nil {
		return "", graph.ReasonUnsupportedReceiver
	}

	switch fnNode.Type() {
	case "scoped_identifier":
		qualifier, method := parser.SplitScoped(r.src.Text(fnNode))
		qt := registry.BaseType(qualifier)
		if qt == "Self" {
			qt = sc.selfType
		}
		if rt, ok := r.reg.ReturnType(qt, method); ok {
			return rt, ""
		}
		return "", graph.ReasonReturnTypeUnknown

	case "field_expression":
		inner := r.src.Field(fnNode, "value")
		innerMethod := r.src.FieldText(fnNode, "field")
		if inner == nil || innerMethod == "" {
			return "", graph.ReasonUnsupportedReceiver
		}
		innerType, reason := r.receiverType(inner, sc)
		if reason != "" {
			return "", reason
		}
		if rt, ok := r.reg.ReturnType(innerType, innerMethod); ok {
			return rt, ""
		}
		return "", graph.ReasonReturnTypeUnknown

	case "identifier":
		if rt, ok := r.reg.ReturnType(r.fileStem, r.src.Text(fnNode)); ok {
			return rt, ""
		}
		return "", graph.ReasonReturnTypeUnknown
	}
	return "", graph.ReasonUnsupportedReceiver
}

func (r *resolver) addEdge(fromID, target string, call, fn *sitter.Node) {
	r.edges = append(r.edges, &graph.CallEdge{
		From:    fromID,
		To:      target,
		File:    r.path,
		Line:    r.src.Line(call),
		Context: r.callContext(call, fn),
	})
}
