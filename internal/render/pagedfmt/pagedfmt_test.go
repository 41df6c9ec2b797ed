package pagedfmt

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/apidoc/internal/model"
	"git.home.luguber.info/inful/apidoc/internal/record"
	"git.home.luguber.info/inful/apidoc/internal/render"
)

func buildModel(t *testing.T, raws []record.Raw) *model.DocumentModel {
	t.Helper()
	validated, diags := record.Validate(raws)
	require.Empty(t, diags)
	m, _ := model.Assemble(validated, model.Options{})
	return m
}

func runPaged(t *testing.T, m *model.DocumentModel, pageHeight int) string {
	t.Helper()
	result, err := render.NewEngine("test-run", m, New(pageHeight)).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Diagnostics)
	require.Len(t, result.Artifacts, 1)
	require.Equal(t, "document.txt", result.Artifacts[0].Name)
	return string(result.Artifacts[0].Content)
}

func scenarioRecords() []record.Raw {
	return []record.Raw{
		{QualifiedName: "acme", Kind: "namespace", DeclOrder: 0},
		{QualifiedName: "acme.Alpha", Kind: "type", Parent: "acme", Modifiers: []string{"public"}, BaseTypes: []string{"acme.Beta"}, DeclOrder: 1},
		{QualifiedName: "acme.Beta", Kind: "type", Parent: "acme", Modifiers: []string{"public"}, DeclOrder: 2},
		{QualifiedName: "acme.Beta.Gamma", Kind: "nested-type", Parent: "acme.Beta", Modifiers: []string{"public"}, DeclOrder: 3},
	}
}

// pageOf returns the text between the separators for page n and page n+1.
func pageOf(t *testing.T, doc string, n int) string {
	t.Helper()
	i := strings.Index(doc, " page "+strconv.Itoa(n)+" ")
	require.GreaterOrEqual(t, i, 0, "missing separator for page %d", n)
	page := doc[i:]
	if next := strings.Index(page[1:], " page "); next >= 0 {
		page = page[:next+1]
	}
	return page
}

func TestPaged_PageJumpAnnotations(t *testing.T) {
	doc := runPaged(t, buildModel(t, scenarioRecords()), 4)

	// Index and hierarchy entries jump to the page each symbol lands on.
	require.Contains(t, doc, "  Alpha → p.4")
	require.Contains(t, doc, "  Beta → p.5")
	require.Contains(t, doc, "    Beta.Gamma → p.6")

	// The forward base-type reference resolves to Beta's page.
	require.Contains(t, doc, "  inherits acme.Beta → p.5")

	// The announced pages actually hold the content.
	require.Contains(t, pageOf(t, doc, 5), "TYPE Beta")
	require.Contains(t, pageOf(t, doc, 6), "NESTED-TYPE Beta.Gamma")

	require.NotContains(t, doc, "\x00")
}

func TestPaged_ContentStartsOnFreshPage(t *testing.T) {
	doc := runPaged(t, buildModel(t, scenarioRecords()), 4)

	// Pages 1-3 are front matter; the first symbol heading opens its page.
	page4 := pageOf(t, doc, 4)
	require.Contains(t, page4, "NAMESPACE acme")
	require.NotContains(t, pageOf(t, doc, 1), "NAMESPACE")
}

func TestPaged_ExcludedBaseTypeHasNoJump(t *testing.T) {
	raws := scenarioRecords()
	raws[2].Modifiers = nil
	raws[3].Modifiers = nil

	doc := runPaged(t, buildModel(t, raws), 4)

	require.Contains(t, doc, "  inherits acme.Beta\n")
	require.NotContains(t, doc, "inherits acme.Beta → p.")
	require.NotContains(t, doc, "TYPE Beta")
}

func TestPaged_Deterministic(t *testing.T) {
	m := buildModel(t, scenarioRecords())
	require.Equal(t, runPaged(t, m, 4), runPaged(t, m, 4))
}

func TestPaged_DefaultPageHeight(t *testing.T) {
	r := New(0)
	require.Equal(t, DefaultPageHeight, r.pageHeight)
}
