// Package runstore persists generation run history so diagnostics can be
// inspected after the fact.
package runstore

import (
	"context"
	"time"

	"git.home.luguber.info/inful/apidoc/internal/diag"
)

// Run summarizes one generation run.
type Run struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Revision    string    `json:"revision,omitempty"`
	Outcome     string    `json:"outcome"`
	Formats     []string  `json:"formats"`
	Records     int       `json:"records"`
	Symbols     int       `json:"symbols"`
	Excluded    int       `json:"excluded"`
	Diagnostics int       `json:"diagnostics"`
}

// Store defines the interface for persisting and retrieving run history.
type Store interface {
	// SaveRun persists a run summary together with its diagnostics.
	SaveRun(ctx context.Context, run Run, diags []diag.Diagnostic) error

	// GetRun retrieves one run and its diagnostics.
	GetRun(ctx context.Context, id string) (Run, []diag.Diagnostic, error)

	// ListRuns retrieves the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Close closes the store and releases resources.
	Close() error
}
