package model

import (
	"git.home.luguber.info/inful/apidoc/internal/record"
	"git.home.luguber.info/inful/apidoc/internal/util/sets"
)

// DocumentModel owns the forest of namespace-root nodes plus a finalized flat
// id lookup built once after assembly. The lookup is a back-reference index,
// never an ownership structure; ownership lives only in the tree. A model is
// immutable after Assemble returns it.
type DocumentModel struct {
	roots    []*SymbolNode
	lookup   map[record.ID]*SymbolNode
	excluded sets.Set[record.ID]
}

// Roots returns the namespace roots in declaration order. When orphaned
// symbols exist, the synthetic root is last.
func (m *DocumentModel) Roots() []*SymbolNode { return m.roots }

// Lookup resolves an id to its node. Excluded (visibility-pruned) symbols are
// not present.
func (m *DocumentModel) Lookup(id record.ID) (*SymbolNode, bool) {
	n, ok := m.lookup[id]
	return n, ok
}

// IsExcluded reports whether the id was pruned by the visibility filter.
// Excluded symbols are valid link targets that resolve to plain text.
func (m *DocumentModel) IsExcluded(id record.ID) bool {
	return m.excluded.Has(id)
}

// Len returns the number of included nodes.
func (m *DocumentModel) Len() int { return len(m.lookup) }

// ExcludedCount returns the number of visibility-pruned symbols.
func (m *DocumentModel) ExcludedCount() int { return len(m.excluded) }
