package record

import (
	"sort"
	"sync"

	"git.home.luguber.info/inful/apidoc/internal/diag"
)

// Validate normalizes a batch of raw records. Records with an unknown kind tag
// or a duplicate id are skipped with a diagnostic; everything else survives.
// The returned slice preserves the input order of the surviving records.
func Validate(raws []Raw) ([]Validated, []diag.Diagnostic) {
	seen := make(map[ID]bool, len(raws))
	out := make([]Validated, 0, len(raws))
	var diags []diag.Diagnostic

	for _, r := range raws {
		v, d := validateOne(r, seen)
		if d != nil {
			diags = append(diags, *d)
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out, diags
}

func validateOne(r Raw, seen map[ID]bool) (Validated, *diag.Diagnostic) {
	kind := Kind(r.Kind)
	if !kind.Known() {
		return Validated{}, &diag.Diagnostic{
			Kind:   diag.UnknownSymbolKind,
			Symbol: r.QualifiedName,
			Detail: "unknown kind tag " + r.Kind,
			Origin: r.Origin,
		}
	}

	id := ComputeID(r.QualifiedName, r.Signature)
	if seen[id] {
		return Validated{}, &diag.Diagnostic{
			Kind:   diag.DuplicateSymbolID,
			Symbol: id.String(),
			Detail: "duplicate qualified name and signature",
			Origin: r.Origin,
		}
	}

	var parentID ID
	if r.Parent != "" {
		// Parents are containers and containers carry no signature, so the
		// declared parent reference resolves through the bare qualified name.
		parentID = ComputeID(r.Parent, "")
	}

	return Validated{
		ID:            id,
		Kind:          kind,
		QualifiedName: r.QualifiedName,
		SimpleName:    simpleName(r.QualifiedName),
		Signature:     r.Signature,
		Modifiers:     r.Modifiers,
		Attributes:    r.Attributes,
		BaseTypes:     r.BaseTypes,
		Summary:       r.Summary,
		ParentName:    r.Parent,
		ParentID:      parentID,
		DeclOrder:     r.DeclOrder,
		Origin:        r.Origin,
	}, nil
}

// Batch is one independently validated group of raw records, typically the
// contents of a single source file.
type Batch struct {
	Origin string
	Raws   []Raw
}

// ValidateAll validates batches concurrently and merges the partial results
// with a stable sort honoring declaration order, so the outcome is identical
// to a sequential pass regardless of goroutine scheduling. Duplicate ids that
// span batches are caught during the single-threaded merge.
func ValidateAll(batches []Batch) ([]Validated, []diag.Diagnostic) {
	partials := make([][]Validated, len(batches))
	partialDiags := make([][]diag.Diagnostic, len(batches))

	var wg sync.WaitGroup
	for i, b := range batches {
		wg.Add(1)
		go func(i int, b Batch) {
			defer wg.Done()
			partials[i], partialDiags[i] = Validate(b.Raws)
		}(i, b)
	}
	wg.Wait()

	var merged []Validated
	var diags []diag.Diagnostic
	for i := range batches {
		merged = append(merged, partials[i]...)
		diags = append(diags, partialDiags[i]...)
	}

	// Stable: records with equal declaration order keep batch order.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].DeclOrder < merged[j].DeclOrder
	})

	// Cross-batch duplicate detection; the first occurrence in merged order wins.
	seen := make(map[ID]bool, len(merged))
	out := merged[:0]
	for _, v := range merged {
		if seen[v.ID] {
			diags = append(diags, diag.Diagnostic{
				Kind:   diag.DuplicateSymbolID,
				Symbol: v.ID.String(),
				Detail: "duplicate qualified name and signature across inputs",
				Origin: v.Origin,
			})
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out, diags
}
