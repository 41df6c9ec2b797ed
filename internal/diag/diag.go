// Package diag defines the recoverable diagnostic taxonomy reported by the
// documentation engine. Diagnostics never abort a run; they accumulate and are
// reported alongside the best-effort artifact set.
package diag

import "fmt"

// Kind identifies one diagnostic category.
type Kind string

const (
	UnknownSymbolKind   Kind = "unknown_symbol_kind"
	DuplicateSymbolID   Kind = "duplicate_symbol_id"
	OrphanedSymbol      Kind = "orphaned_symbol"
	CyclicNesting       Kind = "cyclic_nesting"
	DuplicateLocation   Kind = "duplicate_location"
	UnresolvedReference Kind = "unresolved_reference"
)

// Diagnostic is one reported data-quality finding. Symbol holds the affected
// symbol id when known, Origin the input file the offending record came from.
type Diagnostic struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Symbol string `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty"`
}

func (d Diagnostic) String() string {
	s := string(d.Kind)
	if d.Symbol != "" {
		s += " " + d.Symbol
	}
	if d.Detail != "" {
		s = fmt.Sprintf("%s: %s", s, d.Detail)
	}
	if d.Origin != "" {
		s = fmt.Sprintf("%s (%s)", s, d.Origin)
	}
	return s
}

// CountByKind tallies diagnostics per kind, for metrics and summaries.
func CountByKind(list []Diagnostic) map[Kind]int {
	if len(list) == 0 {
		return nil
	}
	counts := make(map[Kind]int)
	for _, d := range list {
		counts[d.Kind]++
	}
	return counts
}

// Filter returns the diagnostics of one kind, preserving order.
func Filter(list []Diagnostic, kind Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range list {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
