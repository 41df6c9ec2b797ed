package model

import "iter"

// DepthFirst returns the content-emission view: a lazy, restartable sequence
// visiting every included node exactly once, each parent before any of its
// descendants, siblings in declaration order with display-name tiebreak. Each
// range restarts from the roots; no state is shared between walks.
func (m *DocumentModel) DepthFirst() iter.Seq[*SymbolNode] {
	return func(yield func(*SymbolNode) bool) {
		for _, root := range m.roots {
			if !walkDepthFirst(root, yield) {
				return
			}
		}
	}
}

func walkDepthFirst(n *SymbolNode, yield func(*SymbolNode) bool) bool {
	if !yield(n) {
		return false
	}
	for _, child := range n.children {
		if !walkDepthFirst(child, yield) {
			return false
		}
	}
	return true
}

// Grouped returns the member-table view of one node: non-empty categories in
// presentation order, each with its members in declaration order. The view
// reads the same finalized lists as DepthFirst without mutation, so both views
// can run over one model independently.
func Grouped(n *SymbolNode) iter.Seq2[Category, []*SymbolNode] {
	return func(yield func(Category, []*SymbolNode) bool) {
		for _, cat := range Categories() {
			members := n.ChildrenIn(cat)
			if len(members) == 0 {
				continue
			}
			if !yield(cat, members) {
				return
			}
		}
	}
}

// Flatten materializes the depth-first view, mainly for tests and summaries.
func Flatten(m *DocumentModel) []*SymbolNode {
	out := make([]*SymbolNode, 0, m.Len())
	for n := range m.DepthFirst() {
		out = append(out, n)
	}
	return out
}
