package model

import (
	"sort"

	"git.home.luguber.info/inful/apidoc/internal/diag"
	"git.home.luguber.info/inful/apidoc/internal/record"
	"git.home.luguber.info/inful/apidoc/internal/util/sets"
)

// Options controls model assembly.
type Options struct {
	// IncludeNonPublic keeps non-public symbols in the model. When false
	// (public-only), pruned subtrees land in the excluded set consulted by the
	// cross-reference ledger.
	IncludeNonPublic bool
}

// SyntheticRootName is the display name of the root that collects orphaned
// symbols so they never silently vanish from output.
const SyntheticRootName = "(orphaned)"

// SyntheticRootID identifies the synthetic root.
const SyntheticRootID = record.ID("(orphaned)")

// Assemble consumes validated records and builds the finalized ownership tree.
// Two sub-passes: first all nodes are inserted into an id-indexed working map,
// then each node is linked to its declared parent. Records whose parent is
// absent attach to the synthetic root with an OrphanedSymbol diagnostic; parent
// cycles are broken at the first repeated id with a CyclicNesting diagnostic.
// Visibility filtering happens last, before the flat lookup freezes.
func Assemble(records []record.Validated, opts Options) (*DocumentModel, []diag.Diagnostic) {
	var diags []diag.Diagnostic

	// Sub-pass one: insert.
	nodes := make(map[record.ID]*SymbolNode, len(records))
	ordered := make([]*SymbolNode, 0, len(records))
	for _, r := range records {
		n := &SymbolNode{
			ID:            r.ID,
			Kind:          r.Kind,
			SimpleName:    r.SimpleName,
			QualifiedName: r.QualifiedName,
			Signature:     r.Signature,
			Modifiers:     r.Modifiers,
			Attributes:    r.Attributes,
			Summary:       r.Summary,
			DeclOrder:     r.DeclOrder,
			Origin:        r.Origin,
		}
		nodes[r.ID] = n
		ordered = append(ordered, n)
	}

	synthetic := &SymbolNode{
		ID:            SyntheticRootID,
		Kind:          record.KindNamespace,
		SimpleName:    SyntheticRootName,
		QualifiedName: SyntheticRootName,
		DeclOrder:     int(^uint(0) >> 1), // sorts after every real root
	}

	// Sub-pass two: link parents and resolve base-type names against the full
	// pre-exclusion set, so references to later-pruned symbols keep their id.
	var roots []*SymbolNode
	for i, r := range records {
		n := ordered[i]

		for _, base := range r.BaseTypes {
			ref := BaseRef{Name: base}
			if target, ok := nodes[record.ComputeID(base, "")]; ok {
				ref.Target = target.ID
			}
			n.BaseRefs = append(n.BaseRefs, ref)
		}

		if r.ParentID == "" {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[r.ParentID]
		if !ok {
			attach(synthetic, n)
			diags = append(diags, diag.Diagnostic{
				Kind:   diag.OrphanedSymbol,
				Symbol: n.ID.String(),
				Detail: "declared parent " + r.ParentName + " not found",
				Origin: n.Origin,
			})
			continue
		}
		attach(parent, n)
	}

	// Cycle walk, bounded by total node count: any node reachable from itself
	// through parent links is broken out at the first repeated id and the
	// remainder of its chain hangs under it as orphaned content.
	safe := sets.New[record.ID]()
	for _, n := range ordered {
		diags = append(diags, breakCycles(n, synthetic, safe)...)
	}

	excluded := sets.New[record.ID]()
	if !opts.IncludeNonPublic {
		kept := roots[:0]
		for _, root := range roots {
			if !root.IsPublic() {
				markSubtree(root, excluded)
				continue
			}
			pruneNonPublic(root, excluded)
			kept = append(kept, root)
		}
		roots = kept
		pruneNonPublic(synthetic, excluded)
	}

	// Finalize: deterministic sibling order, display names, category lists,
	// flat lookup. The model is immutable from here on.
	if len(synthetic.children) > 0 {
		roots = append(roots, synthetic)
	}
	sortSiblings(roots)
	lookup := make(map[record.ID]*SymbolNode)
	for _, root := range roots {
		finalize(root, lookup)
	}

	return &DocumentModel{roots: roots, lookup: lookup, excluded: excluded}, diags
}

func attach(parent, child *SymbolNode) {
	child.parent = parent
	parent.children = append(parent.children, child)
}

func detach(child *SymbolNode) {
	p := child.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	child.parent = nil
}

// breakCycles walks the parent chain from n. Chains ending at a root or at an
// already-verified node are marked safe; a chain that revisits a node on the
// current path is a cycle, broken by re-rooting the repeated node under the
// synthetic root.
func breakCycles(n *SymbolNode, synthetic *SymbolNode, safe sets.Set[record.ID]) []diag.Diagnostic {
	var diags []diag.Diagnostic
	onPath := sets.New[record.ID]()
	var path []*SymbolNode

	cur := n
	for cur != nil && !safe.Has(cur.ID) {
		if onPath.Has(cur.ID) {
			detach(cur)
			attach(synthetic, cur)
			diags = append(diags, diag.Diagnostic{
				Kind:   diag.CyclicNesting,
				Symbol: cur.ID.String(),
				Detail: "parent chain loops back to this symbol",
				Origin: cur.Origin,
			})
			break
		}
		onPath.Add(cur.ID)
		path = append(path, cur)
		cur = cur.parent
	}
	for _, p := range path {
		safe.Add(p.ID)
	}
	return diags
}

// pruneNonPublic removes non-public children of n and records their entire
// subtrees in the excluded set.
func pruneNonPublic(n *SymbolNode, excluded sets.Set[record.ID]) {
	kept := n.children[:0]
	for _, child := range n.children {
		if !child.IsPublic() {
			markSubtree(child, excluded)
			child.parent = nil
			continue
		}
		kept = append(kept, child)
		pruneNonPublic(child, excluded)
	}
	n.children = kept
}

func markSubtree(n *SymbolNode, excluded sets.Set[record.ID]) {
	excluded.Add(n.ID)
	for _, child := range n.children {
		markSubtree(child, excluded)
	}
}

func sortSiblings(nodes []*SymbolNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].DeclOrder != nodes[j].DeclOrder {
			return nodes[i].DeclOrder < nodes[j].DeclOrder
		}
		return nodes[i].SimpleName < nodes[j].SimpleName
	})
}

func finalize(n *SymbolNode, lookup map[record.ID]*SymbolNode) {
	if n.DisplayName == "" {
		switch {
		case n.parent == nil:
			if n.Kind == record.KindNamespace {
				n.DisplayName = n.QualifiedName
			} else {
				n.DisplayName = n.SimpleName
			}
		case n.parent.parent == nil && n.parent.Kind == record.KindNamespace:
			// Direct child of a namespace root: chain starts here.
			n.DisplayName = n.SimpleName
		default:
			n.DisplayName = n.parent.DisplayName + "." + n.SimpleName
		}
	}

	sortSiblings(n.children)
	for c := range n.byCategory {
		n.byCategory[c] = nil
	}
	for _, child := range n.children {
		cat := CategoryFor(child.Kind)
		n.byCategory[cat] = append(n.byCategory[cat], child)
	}

	lookup[n.ID] = n
	for _, child := range n.children {
		finalize(child, lookup)
	}
}
