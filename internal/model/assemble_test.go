package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/apidoc/internal/diag"
	"git.home.luguber.info/inful/apidoc/internal/record"
)

func validate(t *testing.T, raws []record.Raw) []record.Validated {
	t.Helper()
	validated, diags := record.Validate(raws)
	require.Empty(t, diags)
	return validated
}

func widgetRecords() []record.Raw {
	return []record.Raw{
		{QualifiedName: "acme", Kind: "namespace", DeclOrder: 0},
		{QualifiedName: "acme.Widget", Kind: "type", Parent: "acme", Modifiers: []string{"public"}, DeclOrder: 1},
		{QualifiedName: "acme.Widget.Handle", Kind: "nested-type", Parent: "acme.Widget", Modifiers: []string{"public"}, DeclOrder: 2},
		{QualifiedName: "acme.Widget.Resize", Kind: "method", Signature: "(int)", Parent: "acme.Widget", Modifiers: []string{"public"}, DeclOrder: 3},
		{QualifiedName: "acme.Widget.size", Kind: "field", Parent: "acme.Widget", Modifiers: []string{"private"}, DeclOrder: 4},
	}
}

func TestAssemble_OwnershipTree(t *testing.T) {
	m, diags := Assemble(validate(t, widgetRecords()), Options{IncludeNonPublic: true})
	require.Empty(t, diags)

	require.Len(t, m.Roots(), 1)
	ns := m.Roots()[0]
	require.Equal(t, "acme", ns.DisplayName)

	widget, ok := m.Lookup(record.ID("acme.Widget"))
	require.True(t, ok)
	require.Same(t, ns, widget.Parent())
	require.Len(t, widget.Children(), 3)

	handle, ok := m.Lookup(record.ID("acme.Widget.Handle"))
	require.True(t, ok)
	require.Equal(t, "Widget.Handle", handle.DisplayName)
}

func TestAssemble_NodesCarryRecordSignatures(t *testing.T) {
	m, diags := Assemble(validate(t, widgetRecords()), Options{IncludeNonPublic: true})
	require.Empty(t, diags)

	resize, ok := m.Lookup(record.ComputeID("acme.Widget.Resize", "(int)"))
	require.True(t, ok)
	require.Equal(t, "(int)", resize.Signature)

	widget, ok := m.Lookup(record.ID("acme.Widget"))
	require.True(t, ok)
	require.Empty(t, widget.Signature)
}

func TestAssemble_FlattenVisitsEachNodeOnce(t *testing.T) {
	m, _ := Assemble(validate(t, widgetRecords()), Options{IncludeNonPublic: true})

	flat := Flatten(m)
	require.Len(t, flat, m.Len())

	seen := map[record.ID]int{}
	for _, n := range flat {
		seen[n.ID]++
	}
	for id, count := range seen {
		require.Equal(t, 1, count, "node %s visited more than once", id)
	}

	// Structural recursion law: |flatten(n)| == 1 + sum over children.
	var size func(n *SymbolNode) int
	size = func(n *SymbolNode) int {
		total := 1
		for _, c := range n.Children() {
			total += size(c)
		}
		return total
	}
	total := 0
	for _, root := range m.Roots() {
		total += size(root)
	}
	require.Equal(t, len(flat), total)
}

func TestAssemble_OrphanAttachesToSyntheticRoot(t *testing.T) {
	raws := []record.Raw{
		{QualifiedName: "acme", Kind: "namespace", DeclOrder: 0},
		{QualifiedName: "ghost.Member", Kind: "method", Signature: "()", Parent: "ghost.Type", DeclOrder: 1},
	}

	m, diags := Assemble(validate(t, raws), Options{IncludeNonPublic: true})
	require.Len(t, diags, 1)
	require.Equal(t, diag.OrphanedSymbol, diags[0].Kind)

	require.Len(t, m.Roots(), 2)
	synthetic := m.Roots()[1]
	require.Equal(t, SyntheticRootName, synthetic.DisplayName)
	require.Len(t, synthetic.Children(), 1)
	require.Equal(t, "Member", synthetic.Children()[0].SimpleName)
}

func TestAssemble_CycleBrokenAtFirstRepeat(t *testing.T) {
	raws := []record.Raw{
		{QualifiedName: "acme.X", Kind: "type", Parent: "acme.Y", Modifiers: []string{"public"}, DeclOrder: 0},
		{QualifiedName: "acme.Y", Kind: "nested-type", Parent: "acme.X", Modifiers: []string{"public"}, DeclOrder: 1},
	}

	m, diags := Assemble(validate(t, raws), Options{IncludeNonPublic: true})
	cyclic := diag.Filter(diags, diag.CyclicNesting)
	require.Len(t, cyclic, 1)

	// Both nodes appear exactly once; no infinite recursion.
	flat := Flatten(m)
	counts := map[record.ID]int{}
	for _, n := range flat {
		counts[n.ID]++
	}
	require.Equal(t, 1, counts[record.ID("acme.X")])
	require.Equal(t, 1, counts[record.ID("acme.Y")])
}

func TestAssemble_SelfParentIsCycle(t *testing.T) {
	raws := []record.Raw{
		{QualifiedName: "acme.Ouro", Kind: "type", Parent: "acme.Ouro", Modifiers: []string{"public"}, DeclOrder: 0},
	}

	m, diags := Assemble(validate(t, raws), Options{IncludeNonPublic: true})
	require.Len(t, diag.Filter(diags, diag.CyclicNesting), 1)
	require.Len(t, Flatten(m), 2) // synthetic root + node
}

func TestAssemble_PublicOnlyPrunesSubtree(t *testing.T) {
	raws := []record.Raw{
		{QualifiedName: "acme", Kind: "namespace", DeclOrder: 0},
		{QualifiedName: "acme.Beta", Kind: "type", Parent: "acme", Modifiers: []string{"internal"}, DeclOrder: 1},
		{QualifiedName: "acme.Beta.Gamma", Kind: "nested-type", Parent: "acme.Beta", Modifiers: []string{"public"}, DeclOrder: 2},
		{QualifiedName: "acme.Alpha", Kind: "type", Parent: "acme", Modifiers: []string{"public"}, DeclOrder: 3},
	}

	m, diags := Assemble(validate(t, raws), Options{})
	require.Empty(t, diags)

	_, ok := m.Lookup(record.ID("acme.Beta"))
	require.False(t, ok)
	_, ok = m.Lookup(record.ID("acme.Beta.Gamma"))
	require.False(t, ok, "descendants of excluded symbols must be pruned too")

	require.True(t, m.IsExcluded(record.ID("acme.Beta")))
	require.True(t, m.IsExcluded(record.ID("acme.Beta.Gamma")))

	// No excluded node reachable from any included ancestor.
	for n := range m.DepthFirst() {
		require.False(t, m.IsExcluded(n.ID))
	}
}

func TestAssemble_BaseRefsResolveAgainstFullSet(t *testing.T) {
	raws := []record.Raw{
		{QualifiedName: "acme", Kind: "namespace", DeclOrder: 0},
		{QualifiedName: "acme.Alpha", Kind: "type", Parent: "acme", Modifiers: []string{"public"}, BaseTypes: []string{"acme.Beta", "framework.Object"}, DeclOrder: 1},
		{QualifiedName: "acme.Beta", Kind: "type", Parent: "acme", Modifiers: []string{"internal"}, DeclOrder: 2},
	}

	m, _ := Assemble(validate(t, raws), Options{})
	alpha, ok := m.Lookup(record.ID("acme.Alpha"))
	require.True(t, ok)
	require.Len(t, alpha.BaseRefs, 2)

	// Reference into the scanned set keeps its id even though the target was
	// pruned; the ledger turns it into plain text later.
	require.True(t, alpha.BaseRefs[0].Resolved())
	require.Equal(t, record.ID("acme.Beta"), alpha.BaseRefs[0].Target)

	// External reference stays unresolved.
	require.False(t, alpha.BaseRefs[1].Resolved())
}

func TestAssemble_SiblingOrderDeterministic(t *testing.T) {
	raws := []record.Raw{
		{QualifiedName: "acme", Kind: "namespace", DeclOrder: 0},
		{QualifiedName: "acme.Zeta", Kind: "type", Parent: "acme", Modifiers: []string{"public"}, DeclOrder: 5},
		{QualifiedName: "acme.Eta", Kind: "type", Parent: "acme", Modifiers: []string{"public"}, DeclOrder: 5},
		{QualifiedName: "acme.Alpha", Kind: "type", Parent: "acme", Modifiers: []string{"public"}, DeclOrder: 9},
	}

	m, _ := Assemble(validate(t, raws), Options{})
	ns := m.Roots()[0]

	var names []string
	for _, c := range ns.Children() {
		names = append(names, c.SimpleName)
	}
	// Equal decl order ties break lexicographically by display name.
	require.Equal(t, []string{"Eta", "Zeta", "Alpha"}, names)
}

func TestGrouped_PartitionsByCategory(t *testing.T) {
	raws := append(widgetRecords(),
		record.Raw{QualifiedName: "acme.Widget.Widget", Kind: "constructor", Signature: "()", Parent: "acme.Widget", Modifiers: []string{"public"}, DeclOrder: 9},
		record.Raw{QualifiedName: "acme.Widget.Size", Kind: "property", Parent: "acme.Widget", Modifiers: []string{"public"}, DeclOrder: 10},
	)

	m, _ := Assemble(validate(t, raws), Options{IncludeNonPublic: true})
	widget, ok := m.Lookup(record.ID("acme.Widget"))
	require.True(t, ok)

	got := map[Category]int{}
	for cat, members := range Grouped(widget) {
		got[cat] = len(members)
	}
	require.Equal(t, map[Category]int{
		CategoryTypes:        1,
		CategoryConstructors: 1,
		CategoryProperties:   1,
		CategoryMethods:      1,
		CategoryFields:       1,
	}, got)
}

func TestDepthFirst_RestartableWithoutSharedState(t *testing.T) {
	m, _ := Assemble(validate(t, widgetRecords()), Options{IncludeNonPublic: true})

	var first, second []record.ID
	for n := range m.DepthFirst() {
		first = append(first, n.ID)
	}
	for n := range m.DepthFirst() {
		second = append(second, n.ID)
	}
	require.Equal(t, first, second)

	// Early break must not poison a later walk.
	for range m.DepthFirst() {
		break
	}
	var third []record.ID
	for n := range m.DepthFirst() {
		third = append(third, n.ID)
	}
	require.Equal(t, first, third)
}
