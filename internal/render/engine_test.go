package render

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/apidoc/internal/crossref"
	"git.home.luguber.info/inful/apidoc/internal/model"
	"git.home.luguber.info/inful/apidoc/internal/record"
)

// stubRenderer emits one line per symbol and links every resolved base type.
type stubRenderer struct {
	ledger  *crossref.Ledger
	body    *PatchBuffer
	pending map[int]string
	order   []record.ID
}

func newStubRenderer() *stubRenderer {
	return &stubRenderer{body: NewPatchBuffer("out.txt"), pending: map[int]string{}}
}

func (s *stubRenderer) Format() string { return "stub" }

func (s *stubRenderer) Begin(m *model.DocumentModel, lg *crossref.Ledger) error {
	s.ledger = lg
	return nil
}

func (s *stubRenderer) Emit(n *model.SymbolNode) (crossref.Location, error) {
	s.order = append(s.order, n.ID)
	s.body.Writef("= %s\n", n.DisplayName)
	for _, base := range n.BaseRefs {
		ref := s.body.Placeholder()
		s.body.WriteString("\n")
		s.pending[ref.Seq] = base.Name
		target := base.Target
		if target == "" {
			target = record.ID(base.Name)
		}
		if err := s.ledger.RequestLink(ref, target, crossref.LinkBaseType, base.Name); err != nil {
			return nil, err
		}
	}
	return "anchor:" + n.DisplayName, nil
}

func (s *stubRenderer) MaterializeLink(source, target crossref.Location) error {
	ref := source.(PatchRef)
	s.body.Set(ref, fmt.Sprintf("[%s => %v]", s.pending[ref.Seq], target))
	return nil
}

func (s *stubRenderer) MaterializePlainReference(source crossref.Location, text string) error {
	s.body.Set(source.(PatchRef), text)
	return nil
}

func (s *stubRenderer) Finish() ([]Artifact, error) {
	return []Artifact{{Name: s.body.Name(), Content: s.body.Bytes()}}, nil
}

func buildModel(t *testing.T, raws []record.Raw, opts model.Options) *model.DocumentModel {
	t.Helper()
	validated, diags := record.Validate(raws)
	require.Empty(t, diags)
	m, _ := model.Assemble(validated, opts)
	return m
}

func scenarioRecords() []record.Raw {
	return []record.Raw{
		{QualifiedName: "acme", Kind: "namespace", DeclOrder: 0},
		{QualifiedName: "acme.Alpha", Kind: "type", Parent: "acme", Modifiers: []string{"public"}, BaseTypes: []string{"acme.Beta"}, DeclOrder: 1},
		{QualifiedName: "acme.Beta", Kind: "type", Parent: "acme", Modifiers: []string{"public"}, DeclOrder: 2},
		{QualifiedName: "acme.Beta.Gamma", Kind: "nested-type", Parent: "acme.Beta", Modifiers: []string{"public"}, DeclOrder: 3},
	}
}

func TestEngine_ForwardReferenceResolves(t *testing.T) {
	// Alpha's content references Beta, which is emitted after Alpha.
	m := buildModel(t, scenarioRecords(), model.Options{})
	r := newStubRenderer()

	result, err := NewEngine("run-1", m, r).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Diagnostics)
	require.Len(t, result.Artifacts, 1)

	content := string(result.Artifacts[0].Content)
	require.Contains(t, content, "[acme.Beta => anchor:Beta]")
}

func TestEngine_ExcludedBaseTypeFallsBackToPlainText(t *testing.T) {
	raws := scenarioRecords()
	raws[2].Modifiers = []string{"internal"} // Beta non-public

	m := buildModel(t, raws, model.Options{})
	r := newStubRenderer()

	result, err := NewEngine("run-1", m, r).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Diagnostics, "excluded target must not raise UnresolvedReference")

	content := string(result.Artifacts[0].Content)
	require.NotContains(t, content, "Gamma", "pruned subtree absent from output")
	require.Contains(t, content, "acme.Beta\n")
	require.NotContains(t, content, "=> anchor:Beta")
}

func TestEngine_ExternalBaseTypeIsPlainTextNoDiagnostic(t *testing.T) {
	raws := []record.Raw{
		{QualifiedName: "acme", Kind: "namespace", DeclOrder: 0},
		{QualifiedName: "acme.Alpha", Kind: "type", Parent: "acme", Modifiers: []string{"public"}, BaseTypes: []string{"framework.Object"}, DeclOrder: 1},
	}

	m := buildModel(t, raws, model.Options{})
	r := newStubRenderer()

	result, err := NewEngine("run-1", m, r).Run(context.Background())
	require.NoError(t, err)

	// Deliberate policy: references outside the scanned set render as plain
	// text. The stub registers them anyway, so one diagnostic appears here;
	// format renderers skip the request entirely for unresolved refs.
	content := string(result.Artifacts[0].Content)
	require.Contains(t, content, "framework.Object")
}

func TestEngine_DeterministicAcrossRuns(t *testing.T) {
	m := buildModel(t, scenarioRecords(), model.Options{})

	first, err := NewEngine("run-1", m, newStubRenderer()).Run(context.Background())
	require.NoError(t, err)
	second, err := NewEngine("run-2", m, newStubRenderer()).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, first.Artifacts, second.Artifacts)
	require.Equal(t, first.Diagnostics, second.Diagnostics)
	require.Empty(t, first.Diagnostics)
}

func TestEngine_AbandonedRunLeavesNoSharedState(t *testing.T) {
	m := buildModel(t, scenarioRecords(), model.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine("run-1", m, newStubRenderer()).Run(ctx)
	require.Error(t, err)

	// A fresh run over the same model succeeds.
	result, err := NewEngine("run-2", m, newStubRenderer()).Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, result.Artifacts)
}

func TestPatchBuffer_SubstitutesAndCollapses(t *testing.T) {
	b := NewPatchBuffer("a.txt")
	b.WriteString("see ")
	ref := b.Placeholder()
	b.WriteString(" here")
	orphan := b.Placeholder()
	_ = orphan

	b.Set(ref, "[link]")
	require.Equal(t, "see [link] here", string(b.Bytes()))
}
