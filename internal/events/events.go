// Package events publishes run completion events so downstream consumers
// (dashboards, notifiers) can react to documentation runs without polling the
// history store.
package events

import (
	"context"
	"time"

	"git.home.luguber.info/inful/apidoc/internal/diag"
)

// RunEvent is emitted once per completed generation run.
type RunEvent struct {
	RunID       string            `json:"run_id"`
	Project     string            `json:"project,omitempty"`
	Revision    string            `json:"revision,omitempty"`
	Outcome     string            `json:"outcome"`
	Formats     []string          `json:"formats"`
	Records     int               `json:"records"`
	Symbols     int               `json:"symbols"`
	Diagnostics map[diag.Kind]int `json:"diagnostics,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Publisher emits run events. Implementations must be safe to call after a
// failed run; publishing is best effort and never blocks artifact delivery.
type Publisher interface {
	PublishRunCompleted(ctx context.Context, event RunEvent) error
	Close()
}

// NoopPublisher is the default Publisher when event publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishRunCompleted(context.Context, RunEvent) error { return nil }
func (NoopPublisher) Close()                                              {}
