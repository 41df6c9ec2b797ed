// Package pagedfmt renders the documentation model as paginated plain text:
// one document whose leading pages hold the index and hierarchy tree, followed
// by per-symbol content. Locations are page/offset coordinates and links
// materialize as page-jump annotations, demonstrating that the two-pass
// protocol is independent of anchor-style addressing.
package pagedfmt

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/apidoc/internal/crossref"
	"git.home.luguber.info/inful/apidoc/internal/model"
	"git.home.luguber.info/inful/apidoc/internal/render"
)

const documentArtifact = "document.txt"

// DefaultPageHeight is the number of content lines per page.
const DefaultPageHeight = 44

// PageLoc is this format's Location: a page number (1-based) plus the line
// offset within the page (0-based).
type PageLoc struct {
	Page   int
	Offset int
}

// Renderer implements render.Renderer for paginated text output. Single-use.
type Renderer struct {
	ledger     *crossref.Ledger
	body       *render.PatchBuffer
	pageHeight int
	line       int // total content lines written so far
	pending    map[render.PatchRef]string
}

// New creates a fresh paginated renderer. pageHeight <= 0 selects the default.
func New(pageHeight int) *Renderer {
	if pageHeight <= 0 {
		pageHeight = DefaultPageHeight
	}
	return &Renderer{
		body:       render.NewPatchBuffer(documentArtifact),
		pageHeight: pageHeight,
		pending:    make(map[render.PatchRef]string),
	}
}

func (r *Renderer) Format() string { return "paged" }

// here returns the coordinate of the next line to be written.
func (r *Renderer) here() PageLoc {
	return PageLoc{Page: r.line/r.pageHeight + 1, Offset: r.line % r.pageHeight}
}

// writeLine appends one content line. Placeholder substitution never adds or
// removes newlines, so coordinates assigned here survive into the final text.
func (r *Renderer) writeLine(s string) {
	r.body.WriteString(s)
	r.body.WriteString("\n")
	r.line++
}

func (r *Renderer) Begin(m *model.DocumentModel, lg *crossref.Ledger) error {
	r.ledger = lg

	r.writeLine("INDEX")
	r.writeLine("")
	for _, root := range m.Roots() {
		r.writeLine(root.DisplayName)
		for _, typ := range root.ChildrenIn(model.CategoryTypes) {
			ref := r.body.Placeholder()
			r.pending[ref] = "  " + typ.DisplayName
			r.writeLine("")
			if err := lg.RequestLink(ref, typ.ID, crossref.LinkIndexToContent, "  "+typ.DisplayName); err != nil {
				return err
			}
		}
	}
	r.writeLine("")

	r.writeLine("HIERARCHY")
	r.writeLine("")
	for _, root := range m.Roots() {
		if err := r.emitTree(root, 0); err != nil {
			return err
		}
	}

	// Content starts on a fresh page.
	r.padToPageBreak()
	return nil
}

func (r *Renderer) emitTree(n *model.SymbolNode, depth int) error {
	indent := strings.Repeat("  ", depth)
	ref := r.body.Placeholder()
	r.pending[ref] = indent + n.DisplayName
	r.writeLine("")
	if err := r.ledger.RequestLink(ref, n.ID, crossref.LinkTreeToContent, indent+n.DisplayName); err != nil {
		return err
	}
	for _, child := range n.ChildrenIn(model.CategoryTypes) {
		if err := r.emitTree(child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Emit writes one symbol's content block and returns the coordinate of its
// heading line.
func (r *Renderer) Emit(n *model.SymbolNode) (crossref.Location, error) {
	loc := r.here()

	r.writeLine(strings.ToUpper(string(n.Kind)) + " " + n.DisplayName)
	if len(n.Modifiers) > 0 {
		r.writeLine("  modifiers: " + strings.Join(n.Modifiers, " "))
	}
	if n.Signature != "" {
		r.writeLine("  " + n.Signature)
	}
	for _, attr := range n.Attributes {
		r.writeLine("  attribute: " + attr)
	}
	for _, line := range summaryLines(n.Summary) {
		r.writeLine("  " + line)
	}

	for _, base := range n.BaseRefs {
		if !base.Resolved() {
			r.writeLine("  inherits " + base.Name)
			continue
		}
		ref := r.body.Placeholder()
		r.pending[ref] = "  inherits " + base.Name
		r.writeLine("")
		if err := r.ledger.RequestLink(ref, base.Target, crossref.LinkBaseType, "  inherits "+base.Name); err != nil {
			return nil, err
		}
	}
	r.writeLine("")
	return loc, nil
}

// MaterializeLink renders a page-jump annotation after the reference text.
func (r *Renderer) MaterializeLink(source, target crossref.Location) error {
	ref, ok := source.(render.PatchRef)
	if !ok {
		return fmt.Errorf("paged: unexpected source location %T", source)
	}
	dest, ok := target.(PageLoc)
	if !ok {
		return fmt.Errorf("paged: unexpected target location %T", target)
	}
	r.body.Set(ref, fmt.Sprintf("%s → p.%d", r.pending[ref], dest.Page))
	return nil
}

func (r *Renderer) MaterializePlainReference(source crossref.Location, text string) error {
	ref, ok := source.(render.PatchRef)
	if !ok {
		return fmt.Errorf("paged: unexpected source location %T", source)
	}
	r.body.Set(ref, text)
	return nil
}

// Finish paginates the patched text: page separators are decoration and do
// not shift the content coordinates handed out during emission.
func (r *Renderer) Finish() ([]render.Artifact, error) {
	lines := strings.Split(strings.TrimSuffix(string(r.body.Bytes()), "\n"), "\n")

	var out strings.Builder
	for i, line := range lines {
		if i%r.pageHeight == 0 {
			fmt.Fprintf(&out, "%s page %d %s\n", strings.Repeat("─", 24), i/r.pageHeight+1, strings.Repeat("─", 24))
		}
		out.WriteString(line)
		out.WriteString("\n")
	}
	return []render.Artifact{{Name: documentArtifact, Content: []byte(out.String())}}, nil
}

func (r *Renderer) padToPageBreak() {
	for r.line%r.pageHeight != 0 {
		r.writeLine("")
	}
}

func summaryLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
