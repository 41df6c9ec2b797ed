// Package model builds the hierarchical documentation model: an ownership tree
// of symbol nodes (namespaces, types, nested types, members, parameters)
// assembled from validated intake records, plus deterministic traversal views
// over it. Models are immutable once assembly finalizes.
package model

import (
	"slices"

	"git.home.luguber.info/inful/apidoc/internal/record"
)

// Category partitions a node's children by member kind for grouped rendering.
type Category int

const (
	CategoryTypes Category = iota // nested types and namespace-level types
	CategoryConstructors
	CategoryProperties
	CategoryMethods
	CategoryEvents
	CategoryFields // enum-members fold into fields
	CategoryParameters
	categoryCount
)

// Categories lists all categories in presentation order.
func Categories() []Category {
	return []Category{
		CategoryTypes, CategoryConstructors, CategoryProperties,
		CategoryMethods, CategoryEvents, CategoryFields, CategoryParameters,
	}
}

func (c Category) String() string {
	switch c {
	case CategoryTypes:
		return "Types"
	case CategoryConstructors:
		return "Constructors"
	case CategoryProperties:
		return "Properties"
	case CategoryMethods:
		return "Methods"
	case CategoryEvents:
		return "Events"
	case CategoryFields:
		return "Fields"
	case CategoryParameters:
		return "Parameters"
	}
	return "Unknown"
}

// CategoryFor maps a symbol kind to the child list it belongs in. Every known
// kind lands in exactly one category.
func CategoryFor(k record.Kind) Category {
	switch k {
	case record.KindNamespace, record.KindType, record.KindNestedType:
		return CategoryTypes
	case record.KindConstructor:
		return CategoryConstructors
	case record.KindProperty:
		return CategoryProperties
	case record.KindMethod:
		return CategoryMethods
	case record.KindEvent:
		return CategoryEvents
	case record.KindField, record.KindEnumMember:
		return CategoryFields
	case record.KindParameter:
		return CategoryParameters
	}
	return CategoryFields
}

// BaseRef is one base-type reference. Target is set when the name resolved to
// a symbol inside the scanned set; otherwise the reference is external and
// renders as plain text.
type BaseRef struct {
	Name   string
	Target record.ID
}

// Resolved reports whether the reference points into the scanned symbol set.
func (b BaseRef) Resolved() bool { return b.Target != "" }

// SymbolNode is one documentable entity in the ownership tree.
type SymbolNode struct {
	ID            record.ID
	Kind          record.Kind
	SimpleName    string
	DisplayName   string // dot-joined ancestor chain below the namespace root
	QualifiedName string
	Signature     string
	Modifiers     []string
	Attributes    []string
	BaseRefs      []BaseRef
	Summary       string
	DeclOrder     int
	Origin        string

	parent     *SymbolNode
	children   []*SymbolNode // declaration order, displayName tiebreak
	byCategory [categoryCount][]*SymbolNode
}

// Parent returns the owning node, nil for roots. The back-reference is
// non-owning; ownership always flows downward through children.
func (n *SymbolNode) Parent() *SymbolNode { return n.parent }

// Children returns the ordered child sequence. Callers must not modify it.
func (n *SymbolNode) Children() []*SymbolNode { return n.children }

// ChildrenIn returns the children in one category, in declaration order.
func (n *SymbolNode) ChildrenIn(c Category) []*SymbolNode {
	if c < 0 || c >= categoryCount {
		return nil
	}
	return n.byCategory[c]
}

// HasModifier reports whether the modifier set contains m.
func (n *SymbolNode) HasModifier(m string) bool {
	return slices.Contains(n.Modifiers, m)
}

// IsPublic reports the node's visibility. Namespaces are always public, and
// parameters and enum-members take the visibility of their container (they are
// pruned only as part of the containing subtree). Everything else must carry
// the public modifier explicitly.
func (n *SymbolNode) IsPublic() bool {
	switch n.Kind {
	case record.KindNamespace, record.KindParameter, record.KindEnumMember:
		return true
	}
	return n.HasModifier("public")
}
