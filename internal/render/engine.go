package render

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/apidoc/internal/crossref"
	"git.home.luguber.info/inful/apidoc/internal/diag"
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
	"git.home.luguber.info/inful/apidoc/internal/model"
)

// Result is the outcome of one engine run for one format.
type Result struct {
	Format      string
	Artifacts   []Artifact
	Diagnostics []diag.Diagnostic

	// LinksTotal counts the link requests queued during emission;
	// LinksUnresolved how many of them pointed at unknown targets.
	// Excluded-target references also render as plain text but are
	// deliberate, not unresolved.
	LinksTotal      int
	LinksUnresolved int
}

// Engine drives one (model, renderer) pair through the two-pass protocol.
// Each run owns a freshly allocated ledger; abandoning a run mid-way leaves
// nothing shared behind that could corrupt a subsequent run.
type Engine struct {
	model    *model.DocumentModel
	renderer Renderer
	ledger   *crossref.Ledger
}

// NewEngine creates an engine for one run. runID tags the ledger for
// diagnostics correlation.
func NewEngine(runID string, m *model.DocumentModel, r Renderer) *Engine {
	return &Engine{
		model:    m,
		renderer: r,
		ledger:   crossref.NewLedger(runID, m.IsExcluded),
	}
}

// Run executes pass one and pass two and returns the artifact set plus any
// diagnostics. Data-quality findings never fail the run; an error return means
// a renderer failure or a contract violation.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if err := e.ledger.BeginRecording(); err != nil {
		return nil, err
	}
	if err := e.renderer.Begin(e.model, e.ledger); err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "renderer begin failed").
			WithContext("format", e.renderer.Format()).Build()
	}

	for node := range e.model.DepthFirst() {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapError(err, errors.CategoryRender, "run abandoned").
				WithContext("format", e.renderer.Format()).Build()
		}
		loc, err := e.renderer.Emit(node)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryRender, "emit failed").
				WithContext("symbol", node.ID.String()).
				WithContext("format", e.renderer.Format()).Build()
		}
		if err := e.ledger.RecordLocation(node.ID, loc); err != nil {
			return nil, err
		}
	}

	if err := e.ledger.FinishRecording(); err != nil {
		return nil, err
	}
	linksTotal := e.ledger.PendingRequests()

	diags, err := e.ledger.Resolve(e.renderer)
	if err != nil {
		return nil, err
	}

	artifacts, err := e.renderer.Finish()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "renderer finish failed").
			WithContext("format", e.renderer.Format()).Build()
	}

	slog.Debug("render run complete",
		logfields.RunID(e.ledger.RunID()),
		logfields.Format(e.renderer.Format()),
		logfields.Diags(len(diags)))

	return &Result{
		Format:          e.renderer.Format(),
		Artifacts:       artifacts,
		Diagnostics:     diags,
		LinksTotal:      linksTotal,
		LinksUnresolved: len(diag.Filter(diags, diag.UnresolvedReference)),
	}, nil
}
