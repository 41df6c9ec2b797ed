package record

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/apidoc/internal/diag"
)

func TestComputeID_DisambiguatesOverloads(t *testing.T) {
	a := ComputeID("acme.Widget.Resize", "(int)")
	b := ComputeID("acme.Widget.Resize", "(int,int)")
	require.NotEqual(t, a, b)

	// Deterministic across calls.
	require.Equal(t, a, ComputeID("acme.Widget.Resize", "(int)"))
}

func TestComputeID_NoSignatureUsesQualifiedName(t *testing.T) {
	require.Equal(t, ID("acme.Widget"), ComputeID("acme.Widget", ""))
}

func TestValidate_UnknownKindSkippedAndReported(t *testing.T) {
	raws := []Raw{
		{QualifiedName: "acme.Widget", Kind: "type", DeclOrder: 0},
		{QualifiedName: "acme.Widget.size", Kind: "gadget", Parent: "acme.Widget", DeclOrder: 1, Origin: "widget.yaml"},
	}

	validated, diags := Validate(raws)
	require.Len(t, validated, 1)
	require.Len(t, diags, 1)
	require.Equal(t, diag.UnknownSymbolKind, diags[0].Kind)
	require.Equal(t, "widget.yaml", diags[0].Origin)
}

func TestValidate_DuplicateIDOneDiagnosticOneSurvivor(t *testing.T) {
	raws := []Raw{
		{QualifiedName: "acme.Widget", Kind: "type", DeclOrder: 0},
		{QualifiedName: "acme.Widget", Kind: "type", DeclOrder: 1},
	}

	validated, diags := Validate(raws)
	require.Len(t, validated, 1)
	require.Len(t, diags, 1)
	require.Equal(t, diag.DuplicateSymbolID, diags[0].Kind)
}

func TestValidate_ParentIDFromQualifiedName(t *testing.T) {
	raws := []Raw{
		{QualifiedName: "acme.Widget.Resize", Kind: "method", Signature: "(int)", Parent: "acme.Widget", DeclOrder: 0},
	}

	validated, diags := Validate(raws)
	require.Empty(t, diags)
	require.Equal(t, ID("acme.Widget"), validated[0].ParentID)
	require.Equal(t, "Resize", validated[0].SimpleName)
}

func TestValidateAll_StableMergeByDeclOrder(t *testing.T) {
	batches := []Batch{
		{Origin: "b.yaml", Raws: []Raw{
			{QualifiedName: "acme.Beta", Kind: "type", DeclOrder: 2},
			{QualifiedName: "acme.Delta", Kind: "type", DeclOrder: 4},
		}},
		{Origin: "a.yaml", Raws: []Raw{
			{QualifiedName: "acme.Alpha", Kind: "type", DeclOrder: 1},
			{QualifiedName: "acme.Gamma", Kind: "type", DeclOrder: 3},
		}},
	}

	merged, diags := ValidateAll(batches)
	require.Empty(t, diags)

	var names []string
	for _, v := range merged {
		names = append(names, v.QualifiedName)
	}
	require.Equal(t, []string{"acme.Alpha", "acme.Beta", "acme.Gamma", "acme.Delta"}, names)
}

func TestValidateAll_CrossBatchDuplicate(t *testing.T) {
	batches := []Batch{
		{Raws: []Raw{{QualifiedName: "acme.Widget", Kind: "type", DeclOrder: 0}}},
		{Raws: []Raw{{QualifiedName: "acme.Widget", Kind: "type", DeclOrder: 5}}},
	}

	merged, diags := ValidateAll(batches)
	require.Len(t, merged, 1)
	require.Len(t, diags, 1)
	require.Equal(t, diag.DuplicateSymbolID, diags[0].Kind)
}

func TestValidateAll_DeterministicAcrossRuns(t *testing.T) {
	var batches []Batch
	for b := 0; b < 8; b++ {
		var raws []Raw
		for i := 0; i < 50; i++ {
			raws = append(raws, Raw{
				QualifiedName: fmt.Sprintf("acme.T%d_%d", b, i),
				Kind:          "type",
				DeclOrder:     b*50 + i,
			})
		}
		batches = append(batches, Batch{Raws: raws})
	}

	first, _ := ValidateAll(batches)
	second, _ := ValidateAll(batches)
	require.Equal(t, first, second)
}
