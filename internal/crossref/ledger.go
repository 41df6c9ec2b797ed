// Package crossref implements the cross-reference ledger: the two-pass link
// resolution engine. During emission (pass one) renderers record the location
// of every emitted symbol and enqueue link requests whose targets may not have
// been emitted yet; afterwards (pass two) every request resolves against the
// completed location table, independent of the output format's addressing
// scheme.
package crossref

import (
	"sync"

	"git.home.luguber.info/inful/apidoc/internal/diag"
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/record"
)

// Location is an opaque, format-defined position value: an anchor string for
// hypertext formats, a page/offset pair for paginated ones. The ledger never
// inspects it.
type Location any

// LinkKind classifies why a link was requested.
type LinkKind string

const (
	LinkBaseType       LinkKind = "base_type"
	LinkTreeToContent  LinkKind = "tree_to_content"
	LinkIndexToContent LinkKind = "index_to_content"
	LinkMemberCrossRef LinkKind = "member_cross_ref"
)

// LinkRequest is one deferred link, created during pass one and consumed by
// pass two. Text carries the display text the renderer already wrote, used for
// the plain-text fallback when the target cannot be linked.
type LinkRequest struct {
	Source Location
	Target record.ID
	Kind   LinkKind
	Text   string
}

// State tracks the ledger's per-run lifecycle.
type State int

const (
	StateEmpty State = iota
	StateRecording
	StateResolving
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateRecording:
		return "recording"
	case StateResolving:
		return "resolving"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Resolver is the capability surface pass two needs from a renderer: make the
// output at source navigate to target, or fall back to plain text.
type Resolver interface {
	MaterializeLink(source, target Location) error
	MaterializePlainReference(source Location, text string) error
}

// Ledger records locations and link requests for one render run. All mutating
// operations are serialized internally, so independent sibling subtrees may
// emit concurrently. A ledger is single-use; each run owns a fresh instance.
type Ledger struct {
	mu        sync.Mutex
	state     State
	runID     string
	excluded  func(record.ID) bool
	locations map[record.ID]Location
	requests  []LinkRequest
	diags     []diag.Diagnostic
}

// NewLedger creates an empty ledger for one run. excluded reports whether an
// id was pruned by the visibility filter; nil means nothing is excluded.
func NewLedger(runID string, excluded func(record.ID) bool) *Ledger {
	if excluded == nil {
		excluded = func(record.ID) bool { return false }
	}
	return &Ledger{
		runID:     runID,
		excluded:  excluded,
		locations: make(map[record.ID]Location),
	}
}

// RunID returns the id of the run this ledger belongs to.
func (l *Ledger) RunID() string { return l.runID }

// State returns the current lifecycle state.
func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// BeginRecording transitions Empty → Recording.
func (l *Ledger) BeginRecording() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateEmpty {
		return errors.InternalError("ledger already recording").
			WithContext("state", l.state.String()).Build()
	}
	l.state = StateRecording
	return nil
}

// RecordLocation stores the resolved location of an emitted symbol. Recording
// the same id twice within one run is an emission bug: the first location is
// kept, a DuplicateLocation diagnostic is collected, and a contract-violation
// error is returned.
func (l *Ledger) RecordLocation(id record.ID, loc Location) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateRecording {
		return errors.InternalError("recordLocation outside recording pass").
			WithContext("state", l.state.String()).Build()
	}
	if _, exists := l.locations[id]; exists {
		l.diags = append(l.diags, diag.Diagnostic{
			Kind:   diag.DuplicateLocation,
			Symbol: id.String(),
			Detail: "location recorded twice in one run",
		})
		return errors.InternalError("duplicate location for symbol").
			WithContext("symbol", id.String()).Build()
	}
	l.locations[id] = loc
	return nil
}

// RequestLink enqueues a deferred link. Always succeeds while recording.
func (l *Ledger) RequestLink(source Location, target record.ID, kind LinkKind, text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateRecording {
		return errors.InternalError("requestLink outside recording pass").
			WithContext("state", l.state.String()).Build()
	}
	l.requests = append(l.requests, LinkRequest{Source: source, Target: target, Kind: kind, Text: text})
	return nil
}

// FinishRecording transitions Recording → Resolving once pass one has emitted
// every reachable, non-excluded symbol.
func (l *Ledger) FinishRecording() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateRecording {
		return errors.InternalError("finishRecording outside recording pass").
			WithContext("state", l.state.String()).Build()
	}
	l.state = StateResolving
	return nil
}

// Resolve runs pass two: every queued request either materializes as a link,
// or falls back to plain text when the target was excluded by visibility
// filtering (no diagnostic) or never got a location (UnresolvedReference
// diagnostic). The request queue is discarded afterwards and the ledger
// closes; the location table stays readable for diagnostics and tests.
func (l *Ledger) Resolve(r Resolver) ([]diag.Diagnostic, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateResolving {
		return nil, errors.InternalError("resolve before recording finished").
			WithContext("state", l.state.String()).Build()
	}

	for _, req := range l.requests {
		target, found := l.locations[req.Target]
		if found {
			if err := r.MaterializeLink(req.Source, target); err != nil {
				return nil, errors.WrapError(err, errors.CategoryCrossRef, "materialize link").
					WithContext("symbol", req.Target.String()).Build()
			}
			continue
		}

		if !l.excluded(req.Target) {
			l.diags = append(l.diags, diag.Diagnostic{
				Kind:   diag.UnresolvedReference,
				Symbol: req.Target.String(),
				Detail: string(req.Kind) + " reference has no recorded location",
			})
		}
		if err := r.MaterializePlainReference(req.Source, req.Text); err != nil {
			return nil, errors.WrapError(err, errors.CategoryCrossRef, "materialize plain reference").
				WithContext("symbol", req.Target.String()).Build()
		}
	}

	l.requests = nil
	l.state = StateClosed
	return l.diags, nil
}

// Location returns the recorded location for id, if any. Readable in any
// state; intended for diagnostics and tests.
func (l *Ledger) Location(id record.ID) (Location, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	loc, ok := l.locations[id]
	return loc, ok
}

// PendingRequests returns the number of queued link requests.
func (l *Ledger) PendingRequests() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}
