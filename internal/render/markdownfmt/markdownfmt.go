// Package markdownfmt renders the documentation model as flat Markdown: one
// combined content artifact plus index and tree artifacts. Locations are
// heading anchor slugs; forward references are patched in during pass two.
package markdownfmt

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/apidoc/internal/crossref"
	"git.home.luguber.info/inful/apidoc/internal/model"
	"git.home.luguber.info/inful/apidoc/internal/record"
	"git.home.luguber.info/inful/apidoc/internal/render"
)

const (
	indexArtifact   = "index.md"
	treeArtifact    = "tree.md"
	contentArtifact = "content.md"
)

// anchor is this format's Location: a "file#slug" address.
type anchor string

// Renderer implements render.Renderer for the markdown format. Single-use.
type Renderer struct {
	ledger  *crossref.Ledger
	index   *render.PatchBuffer
	tree    *render.PatchBuffer
	content *render.PatchBuffer

	slugs    map[string]int             // slug collision counters
	pending  map[render.PatchRef]string // placeholder display text for links
	anchors  map[record.ID]anchor       // assigned during emission
	revision string
}

// StampRevision records the source revision printed at the end of the index.
func (r *Renderer) StampRevision(revision string) { r.revision = revision }

// New creates a fresh markdown renderer for one run.
func New() *Renderer {
	return &Renderer{
		index:   render.NewPatchBuffer(indexArtifact),
		tree:    render.NewPatchBuffer(treeArtifact),
		content: render.NewPatchBuffer(contentArtifact),
		slugs:   make(map[string]int),
		pending: make(map[render.PatchRef]string),
		anchors: make(map[record.ID]anchor),
	}
}

func (r *Renderer) Format() string { return "markdown" }

// Begin emits the index and tree artifacts. Both reference content that has
// not been emitted yet; every reference is a placeholder backed by a queued
// link request.
func (r *Renderer) Begin(m *model.DocumentModel, lg *crossref.Ledger) error {
	r.ledger = lg

	r.index.WriteString("# Index\n\n")
	for _, root := range m.Roots() {
		r.index.Writef("## %s\n\n", root.DisplayName)
		for _, typ := range root.ChildrenIn(model.CategoryTypes) {
			line := r.reference(r.index, typ.DisplayName)
			if err := lg.RequestLink(line, typ.ID, crossref.LinkIndexToContent, typ.DisplayName); err != nil {
				return err
			}
			r.index.WriteString("\n")
		}
		r.index.WriteString("\n")
	}
	if r.revision != "" {
		r.index.Writef("---\n\nGenerated from revision `%s`.\n", r.revision)
	}

	r.tree.WriteString("# Hierarchy\n\n")
	for _, root := range m.Roots() {
		if err := r.emitTree(root, 0); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) emitTree(n *model.SymbolNode, depth int) error {
	r.tree.WriteString(strings.Repeat("  ", depth) + "- ")
	ref := r.reference(r.tree, n.DisplayName)
	if err := r.ledger.RequestLink(ref, n.ID, crossref.LinkTreeToContent, n.DisplayName); err != nil {
		return err
	}
	r.tree.WriteString("\n")
	for _, child := range n.ChildrenIn(model.CategoryTypes) {
		if err := r.emitTree(child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Emit writes one symbol's content block and returns its anchor.
func (r *Renderer) Emit(n *model.SymbolNode) (crossref.Location, error) {
	slug := r.uniqueSlug(n.DisplayName)
	loc := anchor(contentArtifact + "#" + slug)
	r.anchors[n.ID] = loc

	r.content.Writef("%s %s\n\n", headingMarker(n), n.DisplayName)
	r.content.Writef("*%s*", n.Kind)
	if len(n.Modifiers) > 0 {
		r.content.Writef(" — `%s`", strings.Join(n.Modifiers, " "))
	}
	r.content.WriteString("\n\n")

	if n.Signature != "" {
		r.content.Writef("```\n%s\n```\n\n", n.Signature)
	}
	for _, attr := range n.Attributes {
		r.content.Writef("> attribute: %s\n", attr)
	}
	if len(n.Attributes) > 0 {
		r.content.WriteString("\n")
	}
	if n.Summary != "" {
		r.content.WriteString(n.Summary + "\n\n")
	}

	if err := r.emitBaseTypes(n); err != nil {
		return nil, err
	}
	if err := r.emitMemberTables(n); err != nil {
		return nil, err
	}
	return loc, nil
}

func (r *Renderer) emitBaseTypes(n *model.SymbolNode) error {
	if len(n.BaseRefs) == 0 {
		return nil
	}
	r.content.WriteString("Inherits: ")
	for i, base := range n.BaseRefs {
		if i > 0 {
			r.content.WriteString(", ")
		}
		if !base.Resolved() {
			// Outside the scanned set: plain text, no request, no diagnostic.
			r.content.WriteString(base.Name)
			continue
		}
		ref := r.reference(r.content, base.Name)
		if err := r.ledger.RequestLink(ref, base.Target, crossref.LinkBaseType, base.Name); err != nil {
			return err
		}
	}
	r.content.WriteString("\n\n")
	return nil
}

func (r *Renderer) emitMemberTables(n *model.SymbolNode) error {
	for cat, members := range model.Grouped(n) {
		if cat == model.CategoryTypes && n.Kind == record.KindNamespace {
			// Namespace-level types are already covered by index and tree.
			continue
		}
		r.content.Writef("**%s**\n\n", cat)
		r.content.WriteString("| Name | Summary |\n|---|---|\n")
		for _, member := range members {
			r.content.WriteString("| ")
			ref := r.reference(r.content, member.SimpleName)
			if err := r.ledger.RequestLink(ref, member.ID, crossref.LinkMemberCrossRef, member.SimpleName); err != nil {
				return err
			}
			r.content.Writef(" | %s |\n", firstLine(member.Summary))
		}
		r.content.WriteString("\n")
	}
	return nil
}

// MaterializeLink patches a placeholder into a markdown link.
func (r *Renderer) MaterializeLink(source, target crossref.Location) error {
	ref, ok := source.(render.PatchRef)
	if !ok {
		return fmt.Errorf("markdown: unexpected source location %T", source)
	}
	buf := r.bufferFor(ref.Artifact)
	if buf == nil {
		return fmt.Errorf("markdown: unknown artifact %q", ref.Artifact)
	}
	text := r.pending[ref]
	buf.Set(ref, fmt.Sprintf("[%s](%s)", text, target.(anchor)))
	return nil
}

// MaterializePlainReference patches a placeholder into unlinked text.
func (r *Renderer) MaterializePlainReference(source crossref.Location, text string) error {
	ref, ok := source.(render.PatchRef)
	if !ok {
		return fmt.Errorf("markdown: unexpected source location %T", source)
	}
	buf := r.bufferFor(ref.Artifact)
	if buf == nil {
		return fmt.Errorf("markdown: unknown artifact %q", ref.Artifact)
	}
	buf.Set(ref, text)
	return nil
}

// Finish returns index, tree, and combined content.
func (r *Renderer) Finish() ([]render.Artifact, error) {
	return []render.Artifact{
		{Name: indexArtifact, Content: r.index.Bytes()},
		{Name: treeArtifact, Content: r.tree.Bytes()},
		{Name: contentArtifact, Content: r.content.Bytes()},
	}, nil
}

// reference writes a placeholder into buf, remembering the display text for
// link materialization, and returns the placeholder as a source location.
func (r *Renderer) reference(buf *render.PatchBuffer, text string) render.PatchRef {
	ref := buf.Placeholder()
	r.pending[ref] = text
	return ref
}

func (r *Renderer) bufferFor(artifact string) *render.PatchBuffer {
	switch artifact {
	case indexArtifact:
		return r.index
	case treeArtifact:
		return r.tree
	case contentArtifact:
		return r.content
	}
	return nil
}

// uniqueSlug derives a heading anchor slug, disambiguating collisions (e.g.
// overloads sharing a display name) the way hosted markdown renderers do.
func (r *Renderer) uniqueSlug(displayName string) string {
	base := Slug(displayName)
	n := r.slugs[base]
	r.slugs[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// Slug lowercases text and strips everything but letters, digits, and
// hyphens, matching common markdown heading-anchor rules.
func Slug(text string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(text) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
			b.WriteRune(c)
		case c == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}

func headingMarker(n *model.SymbolNode) string {
	depth := 2
	for p := n.Parent(); p != nil; p = p.Parent() {
		depth++
	}
	if depth > 6 {
		depth = 6
	}
	return strings.Repeat("#", depth)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
