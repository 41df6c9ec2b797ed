// Package render defines the renderer adapter contract and the two-pass
// emission engine that drives any concrete output format through pass one
// (emit content, record locations, register link requests) and pass two
// (resolve requests, materialize links).
package render

import (
	"git.home.luguber.info/inful/apidoc/internal/crossref"
	"git.home.luguber.info/inful/apidoc/internal/model"
)

// Artifact is one named output produced by a renderer, conventionally an
// index, a tree, and one or more content artifacts.
type Artifact struct {
	Name    string
	Content []byte
}

// Renderer is the minimal capability surface a concrete output format must
// satisfy. The engine never assumes anything about the shape of the Location
// values a renderer hands out.
//
// Lifecycle per run: Begin (emit index/tree skeletons, registering forward
// link requests), Emit once per model node in traversal order, then the
// crossref.Resolver methods during pass two, then Finish. A renderer instance
// is single-use; each run constructs a fresh one.
type Renderer interface {
	// Format identifies the output format ("markdown", "html", "paged").
	Format() string

	// Begin starts pass one. Renderers typically emit the index and tree
	// artifacts here, registering treeToContent/indexToContent requests
	// against content that has not been emitted yet.
	Begin(m *model.DocumentModel, lg *crossref.Ledger) error

	// Emit writes one symbol's content block and returns the location it
	// ended up at. Base-type and member cross-references encountered while
	// emitting are registered with the ledger, not resolved inline.
	Emit(node *model.SymbolNode) (crossref.Location, error)

	// Resolver materializes links (or plain-text fallbacks) during pass two.
	crossref.Resolver

	// Finish completes the run and returns the final artifact set.
	Finish() ([]Artifact, error)
}

// RevisionStamper is implemented by renderers whose index artifact carries the
// source revision it was generated from. Callers stamp before the engine runs.
type RevisionStamper interface {
	StampRevision(revision string)
}
