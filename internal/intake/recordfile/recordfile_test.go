package recordfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/apidoc/internal/record"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleFile = `
records:
  - qualified_name: acme
    kind: namespace
  - qualified_name: acme.Alpha
    kind: type
    parent: acme
    modifiers: [public]
    base_types: [acme.Beta]
    summary: First type.
    decl_order: 1
`

func TestLoad_ParsesRecordsAndStampsOrigin(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "core.yaml", sampleFile)

	batch, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, batch.Origin)
	require.Len(t, batch.Raws, 2)

	alpha := batch.Raws[1]
	require.Equal(t, "acme.Alpha", alpha.QualifiedName)
	require.Equal(t, "type", alpha.Kind)
	require.Equal(t, "acme", alpha.Parent)
	require.Equal(t, []string{"public"}, alpha.Modifiers)
	require.Equal(t, []string{"acme.Beta"}, alpha.BaseTypes)
	require.Equal(t, 1, alpha.DeclOrder)
	require.Equal(t, path, alpha.Origin)
}

func TestLoad_KeepsExplicitOrigin(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "x.yaml", `
records:
  - qualified_name: acme.X
    kind: type
    origin: generator-v2
`)

	batch, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "generator-v2", batch.Raws[0].Origin)
}

func TestLoadGlobs_SortedAndDeduplicated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "records:\n  - {qualified_name: b.B, kind: type}\n")
	writeFile(t, dir, "a.yaml", "records:\n  - {qualified_name: a.A, kind: type}\n")

	batches, err := LoadGlobs([]string{
		filepath.Join(dir, "*.yaml"),
		filepath.Join(dir, "a.yaml"), // already matched by the glob
	})
	require.NoError(t, err)
	require.Len(t, batches, 2)
	require.Equal(t, filepath.Join(dir, "a.yaml"), batches[0].Origin)
	require.Equal(t, filepath.Join(dir, "b.yaml"), batches[1].Origin)
}

func TestLoadGlobs_NoMatches(t *testing.T) {
	_, err := LoadGlobs([]string{filepath.Join(t.TempDir(), "*.yaml")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no record files matched")
}

func TestLoad_FeedsValidation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "core.yaml", sampleFile)

	batch, err := Load(path)
	require.NoError(t, err)

	validated, diags := record.Validate(batch.Raws)
	require.Empty(t, diags)
	require.Len(t, validated, 2)
}
