// Package htmlfmt renders the documentation model as hypertext: index and
// tree pages plus one content page per namespace-level type. Locations are
// file#fragment addresses; doc summaries pass through goldmark so markdown in
// doc comments renders properly.
package htmlfmt

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/apidoc/internal/crossref"
	"git.home.luguber.info/inful/apidoc/internal/model"
	"git.home.luguber.info/inful/apidoc/internal/record"
	"git.home.luguber.info/inful/apidoc/internal/render"
	"git.home.luguber.info/inful/apidoc/internal/render/markdownfmt"
)

const (
	indexArtifact = "index.html"
	treeArtifact  = "tree.html"
)

// pageAnchor is this format's Location.
type pageAnchor struct {
	File     string
	Fragment string
}

func (a pageAnchor) href() string { return a.File + "#" + a.Fragment }

// Renderer implements render.Renderer for hypertext output. Single-use.
type Renderer struct {
	ledger   *crossref.Ledger
	markdown goldmark.Markdown

	index   *render.PatchBuffer
	tree    *render.PatchBuffer
	pages   []*render.PatchBuffer
	current *render.PatchBuffer
	byName  map[string]*render.PatchBuffer

	slugs    map[string]int
	pending  map[render.PatchRef]string
	revision string
}

// StampRevision records the source revision shown in the index footer.
func (r *Renderer) StampRevision(revision string) { r.revision = revision }

// New creates a fresh HTML renderer for one run.
func New() *Renderer {
	return &Renderer{
		markdown: goldmark.New(),
		index:    render.NewPatchBuffer(indexArtifact),
		tree:     render.NewPatchBuffer(treeArtifact),
		byName:   make(map[string]*render.PatchBuffer),
		slugs:    make(map[string]int),
		pending:  make(map[render.PatchRef]string),
	}
}

func (r *Renderer) Format() string { return "html" }

func (r *Renderer) Begin(m *model.DocumentModel, lg *crossref.Ledger) error {
	r.ledger = lg
	r.byName[indexArtifact] = r.index
	r.byName[treeArtifact] = r.tree

	r.index.WriteString(htmlHead("Index"))
	r.index.WriteString("<h1>Index</h1>\n")
	for _, root := range m.Roots() {
		r.index.Writef("<h2>%s</h2>\n<ul>\n", html.EscapeString(root.DisplayName))
		for _, typ := range root.ChildrenIn(model.CategoryTypes) {
			r.index.WriteString("<li>")
			ref := r.reference(r.index, typ.DisplayName)
			if err := lg.RequestLink(ref, typ.ID, crossref.LinkIndexToContent, typ.DisplayName); err != nil {
				return err
			}
			r.index.WriteString("</li>\n")
		}
		r.index.WriteString("</ul>\n")
	}
	if r.revision != "" {
		r.index.Writef("<footer>Generated from revision %s</footer>\n", html.EscapeString(r.revision))
	}
	r.index.WriteString(htmlFoot())

	r.tree.WriteString(htmlHead("Hierarchy"))
	r.tree.WriteString("<h1>Hierarchy</h1>\n")
	for _, root := range m.Roots() {
		if err := r.emitTree(root); err != nil {
			return err
		}
	}
	r.tree.WriteString(htmlFoot())
	return nil
}

func (r *Renderer) emitTree(n *model.SymbolNode) error {
	r.tree.WriteString("<ul>\n<li>")
	ref := r.reference(r.tree, n.DisplayName)
	if err := r.ledger.RequestLink(ref, n.ID, crossref.LinkTreeToContent, n.DisplayName); err != nil {
		return err
	}
	for _, child := range n.ChildrenIn(model.CategoryTypes) {
		if err := r.emitTree(child); err != nil {
			return err
		}
	}
	r.tree.WriteString("</li>\n</ul>\n")
	return nil
}

// Emit writes one symbol's content block. Namespace roots and namespace-level
// types open a new page; members and nested types append to the page of their
// containing type.
func (r *Renderer) Emit(n *model.SymbolNode) (crossref.Location, error) {
	if n.Kind == record.KindNamespace || underNamespace(n) {
		r.openPage(n)
	}
	if r.current == nil {
		// Defensive: content emitted before any page exists.
		r.openPage(n)
	}

	frag := r.uniqueSlug(n.DisplayName)
	loc := pageAnchor{File: r.current.Name(), Fragment: frag}

	r.current.Writef("<section id=%q>\n", frag)
	r.current.Writef("<h2>%s</h2>\n", html.EscapeString(n.DisplayName))
	r.current.Writef("<p class=\"kind\">%s", n.Kind)
	if len(n.Modifiers) > 0 {
		r.current.Writef(" <code>%s</code>", html.EscapeString(strings.Join(n.Modifiers, " ")))
	}
	r.current.WriteString("</p>\n")

	if n.Signature != "" {
		r.current.Writef("<pre>%s</pre>\n", html.EscapeString(n.Signature))
	}
	for _, attr := range n.Attributes {
		r.current.Writef("<p class=\"attribute\">%s</p>\n", html.EscapeString(attr))
	}
	if n.Summary != "" {
		var buf bytes.Buffer
		if err := r.markdown.Convert([]byte(n.Summary), &buf); err != nil {
			return nil, fmt.Errorf("html: convert summary: %w", err)
		}
		r.current.WriteString(buf.String())
	}

	if err := r.emitBaseTypes(n); err != nil {
		return nil, err
	}
	if err := r.emitMemberLists(n); err != nil {
		return nil, err
	}
	r.current.WriteString("</section>\n")
	return loc, nil
}

func (r *Renderer) emitBaseTypes(n *model.SymbolNode) error {
	if len(n.BaseRefs) == 0 {
		return nil
	}
	r.current.WriteString("<p>Inherits: ")
	for i, base := range n.BaseRefs {
		if i > 0 {
			r.current.WriteString(", ")
		}
		if !base.Resolved() {
			r.current.WriteString(html.EscapeString(base.Name))
			continue
		}
		ref := r.reference(r.current, base.Name)
		if err := r.ledger.RequestLink(ref, base.Target, crossref.LinkBaseType, base.Name); err != nil {
			return err
		}
	}
	r.current.WriteString("</p>\n")
	return nil
}

func (r *Renderer) emitMemberLists(n *model.SymbolNode) error {
	for cat, members := range model.Grouped(n) {
		if cat == model.CategoryTypes && n.Kind == record.KindNamespace {
			continue
		}
		r.current.Writef("<h3>%s</h3>\n<ul>\n", cat)
		for _, member := range members {
			r.current.WriteString("<li>")
			ref := r.reference(r.current, member.SimpleName)
			if err := r.ledger.RequestLink(ref, member.ID, crossref.LinkMemberCrossRef, member.SimpleName); err != nil {
				return err
			}
			if s := firstLine(member.Summary); s != "" {
				r.current.Writef(" — %s", html.EscapeString(s))
			}
			r.current.WriteString("</li>\n")
		}
		r.current.WriteString("</ul>\n")
	}
	return nil
}

func (r *Renderer) MaterializeLink(source, target crossref.Location) error {
	ref, ok := source.(render.PatchRef)
	if !ok {
		return fmt.Errorf("html: unexpected source location %T", source)
	}
	dest, ok := target.(pageAnchor)
	if !ok {
		return fmt.Errorf("html: unexpected target location %T", target)
	}
	buf := r.byName[ref.Artifact]
	if buf == nil {
		return fmt.Errorf("html: unknown artifact %q", ref.Artifact)
	}
	text := html.EscapeString(r.pending[ref])
	buf.Set(ref, fmt.Sprintf("<a href=%q>%s</a>", dest.href(), text))
	return nil
}

func (r *Renderer) MaterializePlainReference(source crossref.Location, text string) error {
	ref, ok := source.(render.PatchRef)
	if !ok {
		return fmt.Errorf("html: unexpected source location %T", source)
	}
	buf := r.byName[ref.Artifact]
	if buf == nil {
		return fmt.Errorf("html: unknown artifact %q", ref.Artifact)
	}
	buf.Set(ref, html.EscapeString(text))
	return nil
}

func (r *Renderer) Finish() ([]render.Artifact, error) {
	artifacts := []render.Artifact{
		{Name: indexArtifact, Content: r.index.Bytes()},
		{Name: treeArtifact, Content: r.tree.Bytes()},
	}
	for _, page := range r.pages {
		content := append(page.Bytes(), []byte(htmlFoot())...)
		artifacts = append(artifacts, render.Artifact{Name: page.Name(), Content: content})
	}
	return artifacts, nil
}

// openPage starts a new content page for a namespace root or top-level type.
func (r *Renderer) openPage(n *model.SymbolNode) {
	name := pageName(n)
	if buf, ok := r.byName[name]; ok {
		r.current = buf
		return
	}
	buf := render.NewPatchBuffer(name)
	buf.WriteString(htmlHead(n.DisplayName))
	r.pages = append(r.pages, buf)
	r.byName[name] = buf
	r.current = buf
}

func (r *Renderer) reference(buf *render.PatchBuffer, text string) render.PatchRef {
	ref := buf.Placeholder()
	r.pending[ref] = text
	return ref
}

func (r *Renderer) uniqueSlug(displayName string) string {
	base := markdownfmt.Slug(displayName)
	n := r.slugs[base]
	r.slugs[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// underNamespace reports whether n is a type directly owned by a namespace,
// which starts its own content page.
func underNamespace(n *model.SymbolNode) bool {
	p := n.Parent()
	return p != nil && p.Kind == record.KindNamespace
}

func pageName(n *model.SymbolNode) string {
	if n.Kind == record.KindNamespace {
		return "ns-" + markdownfmt.Slug(n.DisplayName) + ".html"
	}
	parent := ""
	if p := n.Parent(); p != nil {
		parent = markdownfmt.Slug(p.DisplayName) + "."
	}
	return parent + markdownfmt.Slug(n.DisplayName) + ".html"
}

func htmlHead(title string) string {
	return fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n",
		html.EscapeString(title))
}

func htmlFoot() string { return "</body>\n</html>\n" }

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
