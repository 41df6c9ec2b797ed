// Package sample exercises symbol extraction.
package sample

// Status enumerates widget lifecycle states.
type Status int

const (
	// StatusIdle is the initial state.
	StatusIdle Status = iota
	StatusRunning
)

// MaxWidgets caps the pool size.
const MaxWidgets = 16

// Widget is a demo component.
type Widget struct {
	// Name identifies the widget.
	Name   string
	status Status
}

// Start transitions the widget to running.
func (w *Widget) Start() error { w.status = StatusRunning; return nil }

func (w *Widget) reset() { w.status = StatusIdle }

// Runner starts things.
type Runner interface {
	// Run executes until the widget stops.
	Run() error
}

// NewWidget builds a named widget.
func NewWidget(name string) *Widget { return &Widget{Name: name} }

// Pool groups widgets.
type Pool struct {
	Widget
	Extra int
}
