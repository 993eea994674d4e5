// Package registry implements the whole-codebase type registry: struct
// field types and method return types, keyed by base type name. The
// registry is built once per run after Pass 1 and read-only during Pass 2.
package registry

import (
	"sort"
	"strings"

	"github.com/SakuraCase/perchwork-sub001/internal/graph"
)

type memberKey struct {
	Type   string
	Member string
}

// TypeRegistry maps (type, field) to field types and (type, method) to
// return types. Inserts are last-write-wins: the registry is rebuilt from
// the complete item set every run, and the input set carries no ordering
// guarantee worth preserving.
type TypeRegistry struct {
	fieldTypes  map[memberKey]string
	returnTypes map[memberKey]string
}

// New creates an empty registry.
func New() *TypeRegistry {
	return &TypeRegistry{
		fieldTypes:  make(map[memberKey]string),
		returnTypes: make(map[memberKey]string),
	}
}

// RegisterStructField records a struct field's type, stripped to its base
// type name.
func (r *TypeRegistry) RegisterStructField(typeName, field, fieldType string) {
	r.fieldTypes[memberKey{typeName, field}] = BaseType(fieldType)
}

// RegisterReturnType records a method's return type, stripped to its base
// type name.
func (r *TypeRegistry) RegisterReturnType(typeName, method, returnType string) {
	r.returnTypes[memberKey{typeName, method}] = BaseType(returnType)
}

// FieldType returns the recorded base type of a struct field.
func (r *TypeRegistry) FieldType(typeName, field string) (string, bool) {
	t, ok := r.fieldTypes[memberKey{typeName, field}]
	return t, ok
}

// ReturnType returns the recorded base return type of a method.
func (r *TypeRegistry) ReturnType(typeName, method string) (string, bool) {
	t, ok := r.returnTypes[memberKey{typeName, method}]
	return t, ok
}

// Build constructs the registry from the complete Pass 1 item set across all
// files. Struct fields feed the field map; method signatures feed the return
// map. Free functions are registered under their file stem, which doubles as
// the module qualifier in `module::function()` call sites. A `Self` return
// is recorded as the owning impl type.
func Build(files []*graph.FileAnalysis) *TypeRegistry {
	r := New()
	for _, fa := range files {
		stem := graph.FileStem(fa.Path)
		for _, item := range fa.Items {
			switch item.Kind {
			case graph.KindStruct:
				for _, f := range item.Fields {
					if f.Type != "" {
						r.RegisterStructField(item.Name, f.Name, f.Type)
					}
				}
			case graph.KindMethod:
				ret := ReturnTypeFromSignature(item.Signature)
				if ret == "" {
					continue
				}
				if BaseType(ret) == "Self" {
					ret = item.ImplFor
				}
				r.RegisterReturnType(item.ImplFor, item.Name, ret)
			case graph.KindFunction:
				ret := ReturnTypeFromSignature(item.Signature)
				if ret == "" {
					continue
				}
				r.RegisterReturnType(stem, item.Name, ret)
			}
		}
	}
	return r
}

// ReturnTypeFromSignature extracts the declared return type by matching the
// signature's trailing `-> Type` clause, if present.
func ReturnTypeFromSignature(sig string) string {
	i := strings.LastIndex(sig, "->")
	if i < 0 {
		return ""
	}
	ret := strings.TrimSpace(sig[i+2:])
	// A where clause follows the return type in some signatures.
	if j := strings.Index(ret, "where "); j >= 0 {
		ret = strings.TrimSpace(ret[:j])
	}
	// An arrow inside a closure parameter is not a return clause; it leaves
	// an unbalanced closing paren behind.
	if strings.Count(ret, ")") > strings.Count(ret, "(") {
		return ""
	}
	return ret
}

// BaseType strips reference markers, mutability, lifetimes, and generic
// parameters from a type, reducing it to a bare type name:
// "&mut Foo<Bar>" becomes "Foo".
func BaseType(t string) string {
	t = strings.TrimSpace(t)
	for {
		switch {
		case strings.HasPrefix(t, "&"):
			t = strings.TrimSpace(strings.TrimPrefix(t, "&"))
			continue
		case strings.HasPrefix(t, "mut "), strings.HasPrefix(t, "dyn "), strings.HasPrefix(t, "impl "):
			t = strings.TrimSpace(t[strings.Index(t, " ")+1:])
			continue
		case strings.HasPrefix(t, "'"):
			i := strings.IndexAny(t, " \t")
			if i < 0 {
				return ""
			}
			t = strings.TrimSpace(t[i+1:])
			continue
		}
		break
	}
	if i := strings.Index(t, "<"); i >= 0 {
		t = t[:i]
	}
	if i := strings.LastIndex(t, "::"); i >= 0 {
		t = t[i+2:]
	}
	return strings.TrimSpace(t)
}

// DumpEntry is one registry row in the diagnostic dump.
type DumpEntry struct {
	Type   string `json:"type"`
	Member string `json:"member"`
	Result string `json:"result"`
}

// Dump holds the full registry contents for the diagnostic document.
type Dump struct {
	FieldTypes  []DumpEntry `json:"field_types"`
	ReturnTypes []DumpEntry `json:"return_types"`
}

// DumpAll returns the registry contents sorted for stable output.
func (r *TypeRegistry) DumpAll() *Dump {
	d := &Dump{}
	for k, v := range r.fieldTypes {
		d.FieldTypes = append(d.FieldTypes, DumpEntry{k.Type, k.Member, v})
	}
	for k, v := range r.returnTypes {
		d.ReturnTypes = append(d.ReturnTypes, DumpEntry{k.Type, k.Member, v})
	}
	sortEntries(d.FieldTypes)
	sortEntries(d.ReturnTypes)
	return d
}

func sortEntries(entries []DumpEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].Type < entries[j].Type
		}
		return entries[i].Member < entries[j].Member
	})
}
