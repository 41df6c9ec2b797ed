package generate

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/apidoc/internal/config"
	"git.home.luguber.info/inful/apidoc/internal/diag"
	"git.home.luguber.info/inful/apidoc/internal/gitinfo"
	"git.home.luguber.info/inful/apidoc/internal/linkcheck"
	"git.home.luguber.info/inful/apidoc/internal/model"
	"git.home.luguber.info/inful/apidoc/internal/record"
	"git.home.luguber.info/inful/apidoc/internal/render"
)

// Stage is a discrete unit of work in a generation run.
type Stage func(ctx context.Context, rs *RunState) error

// StageName is a strongly-typed identifier for a run stage.
type StageName string

// Canonical stage names.
const (
	StageResolveRevision StageName = "resolve_revision"
	StageIntake          StageName = "intake"
	StageValidate        StageName = "validate"
	StageAssemble        StageName = "assemble"
	StageRender          StageName = "render"
	StageWriteArtifacts  StageName = "write_artifacts"
	StageVerifyLinks     StageName = "verify_links"
	StagePersistHistory  StageName = "persist_history"
	StagePublishEvents   StageName = "publish_events"
)

// StageDef pairs a stage with its name.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying classification and cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// RunState carries mutable state across stages.
type RunState struct {
	RunID    string
	Cfg      *config.Config
	Revision gitinfo.Revision

	Batches   []record.Batch
	Validated []record.Validated
	Model     *model.DocumentModel
	Results   []*render.Result

	Diagnostics []diag.Diagnostic
	Problems    []linkcheck.Problem
	Written     map[string][]string // format -> artifact paths

	Timings map[StageName]time.Duration
	start   time.Time
}

func newRunState(runID string, cfg *config.Config) *RunState {
	return &RunState{
		RunID:   runID,
		Cfg:     cfg,
		Written: make(map[string][]string),
		Timings: make(map[StageName]time.Duration),
		start:   time.Now(),
	}
}
