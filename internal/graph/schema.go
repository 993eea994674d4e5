// Package graph defines the item, edge, and document types produced by the
// structural extractor and consumed by the rendering layer.
package graph

import (
	"fmt"
	"strings"
)

// ItemKind classifies an extracted declaration.
type ItemKind string

const (
	KindStruct   ItemKind = "struct"
	KindEnum     ItemKind = "enum"
	KindTrait    ItemKind = "trait"
	KindFunction ItemKind = "function"
	KindMethod   ItemKind = "method"
)

// Visibility is the declared visibility of an item.
type Visibility string

const (
	VisPublic  Visibility = "public"
	VisCrate   Visibility = "crate"
	VisPrivate Visibility = "private"
)

// Field is a struct field or enum variant: a name paired with its type text.
// For unit enum variants Type is empty.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// ExtractedItem is a single declaration found during Pass 1. Items are
// created exactly once per run and never mutated afterwards; call edges live
// in the per-file side tables on FileAnalysis, not on the item itself.
type ExtractedItem struct {
	ID         string     `json:"id"`
	Kind       ItemKind   `json:"kind"`
	Name       string     `json:"name"`
	LineStart  int        `json:"line_start"`
	LineEnd    int        `json:"line_end"`
	Visibility Visibility `json:"visibility"`
	Signature  string     `json:"signature"`
	Fields     []Field    `json:"fields,omitempty"`
	IsAsync    bool       `json:"is_async,omitempty"`
	ImplFor    string     `json:"impl_for,omitempty"`
	TraitName  string     `json:"trait_name,omitempty"`
}

// TestInfo describes a function carrying a recognized test attribute.
// Tests are valid call-edge sources but are excluded from the name index
// used to resolve edge targets.
type TestInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LineStart int    `json:"line_start"`
	IsAsync   bool   `json:"is_async,omitempty"`
}

// ContextType tags the control-flow construct a call site resides in.
// There is no "normal" variant: calls outside any construct carry no context.
type ContextType string

const (
	CtxIf       ContextType = "if"
	CtxElse     ContextType = "else"
	CtxMatchArm ContextType = "match_arm"
	CtxLoop     ContextType = "loop"
	CtxWhile    ContextType = "while"
	CtxFor      ContextType = "for"
)

// ControlFlowContext is the nearest enclosing branch/loop construct of a
// call site. Only the fields relevant to Type are populated.
type ControlFlowContext struct {
	Type      ContextType `json:"type"`
	Condition string      `json:"condition,omitempty"`
	Pattern   string      `json:"pattern,omitempty"`
	Binding   string      `json:"binding,omitempty"`
	Iterable  string      `json:"iterable,omitempty"`
}

// CallEdge is a directed call from one item to another. Before edge
// resolution To holds the textual target (e.g. "Foo::bar"); after
// resolution it holds the target's item id.
type CallEdge struct {
	From    string              `json:"from"`
	To      string              `json:"to"`
	File    string              `json:"file"`
	Line    int                 `json:"line"`
	Context *ControlFlowContext `json:"context,omitempty"`
}

// UnresolvedReason is the diagnostic tag attached to an UnresolvedEdge.
// The taxonomy exists for operator diagnostics only; it never drives
// resolution logic.
type UnresolvedReason string

const (
	ReasonVariableNotInScope   UnresolvedReason = "variable_not_in_scope"
	ReasonTypeLookupFailed     UnresolvedReason = "type_lookup_failed"
	ReasonSelfTypeUnknown      UnresolvedReason = "self_type_unknown"
	ReasonSelfTypeLookupFailed UnresolvedReason = "self_type_lookup_failed"
	ReasonFieldTypeUnknown     UnresolvedReason = "field_type_unknown"
	ReasonReturnTypeUnknown    UnresolvedReason = "return_type_unknown"
	ReasonUnsupportedReceiver  UnresolvedReason = "unsupported_receiver_type"
)

// UnresolvedEdge records a method call whose receiver type could not be
// determined. ReceiverType is the syntax-node kind of the receiver
// expression; ReceiverText is the receiver source, truncated.
type UnresolvedEdge struct {
	From         string              `json:"from"`
	File         string              `json:"file"`
	Line         int                 `json:"line"`
	ReceiverType string              `json:"receiver_type"`
	ReceiverText string              `json:"receiver_text"`
	Method       string              `json:"method"`
	Reason       UnresolvedReason    `json:"reason"`
	Context      *ControlFlowContext `json:"context,omitempty"`
}

// FileAnalysis is the per-file unit of work: Pass 1 fills Items and Tests,
// Pass 2 fills Edges and Unresolved. It doubles as the persisted snapshot
// shape for incremental runs.
type FileAnalysis struct {
	Path       string            `json:"path"`
	Items      []*ExtractedItem  `json:"items"`
	Tests      []*TestInfo       `json:"tests"`
	Edges      []*CallEdge       `json:"edges,omitempty"`
	Unresolved []*UnresolvedEdge `json:"unresolved,omitempty"`
}

// ItemID builds the stable item identifier:
// file_stem::[ImplType::]Name::kind. Ids are the join key for the rendering
// layer and must not collide across files for distinct items.
func ItemID(fileStem, implFor, name string, kind ItemKind) string {
	if implFor != "" {
		return fmt.Sprintf("%s::%s::%s::%s", fileStem, implFor, name, kind)
	}
	return fmt.Sprintf("%s::%s::%s", fileStem, name, kind)
}

// TestID builds the identifier for a test function.
func TestID(fileStem, implFor, name string) string {
	if implFor != "" {
		return fmt.Sprintf("%s::%s::%s::test", fileStem, implFor, name)
	}
	return fmt.Sprintf("%s::%s::test", fileStem, name)
}

// FileStem returns the path's base name without its extension.
func FileStem(path string) string {
	base := path
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}
