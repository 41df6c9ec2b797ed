// Package generate orchestrates a full documentation run: intake, validation,
// model assembly, rendering per format, artifact writing, link verification,
// and run bookkeeping. Stages execute in order; data-quality diagnostics
// accumulate while fatal errors abort the run.
package generate

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/apidoc/internal/config"
	"git.home.luguber.info/inful/apidoc/internal/diag"
	"git.home.luguber.info/inful/apidoc/internal/events"
	apperrors "git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/gitinfo"
	"git.home.luguber.info/inful/apidoc/internal/intake/gosource"
	"git.home.luguber.info/inful/apidoc/internal/intake/recordfile"
	"git.home.luguber.info/inful/apidoc/internal/linkcheck"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
	"git.home.luguber.info/inful/apidoc/internal/metrics"
	"git.home.luguber.info/inful/apidoc/internal/model"
	"git.home.luguber.info/inful/apidoc/internal/record"
	"git.home.luguber.info/inful/apidoc/internal/render"
	"git.home.luguber.info/inful/apidoc/internal/render/htmlfmt"
	"git.home.luguber.info/inful/apidoc/internal/render/markdownfmt"
	"git.home.luguber.info/inful/apidoc/internal/render/pagedfmt"
	"git.home.luguber.info/inful/apidoc/internal/runstore"
)

// Report summarizes a finished run.
type Report struct {
	RunID       string
	Revision    gitinfo.Revision
	Outcome     string // success|warning|failed|canceled
	StartedAt   time.Time
	FinishedAt  time.Time
	Records     int
	Symbols     int
	Excluded    int
	Diagnostics []diag.Diagnostic
	Problems    []linkcheck.Problem
	Written     map[string][]string
	Timings     map[StageName]time.Duration
}

// Service runs generation pipelines. Collaborators default to no-ops so a
// bare Service only needs a config.
type Service struct {
	cfg       *config.Config
	recorder  metrics.Recorder
	store     runstore.Store
	publisher events.Publisher
	workDir   string
}

// NewService creates a generation service with no-op collaborators.
func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg:       cfg,
		recorder:  metrics.NoopRecorder{},
		publisher: events.NoopPublisher{},
		workDir:   ".",
	}
}

// WithRecorder injects a metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithStore injects a run history store.
func (s *Service) WithStore(store runstore.Store) *Service {
	s.store = store
	return s
}

// WithPublisher injects a run event publisher.
func (s *Service) WithPublisher(p events.Publisher) *Service {
	if p != nil {
		s.publisher = p
	}
	return s
}

// WithWorkDir sets the directory intake patterns are resolved against.
func (s *Service) WithWorkDir(dir string) *Service {
	if dir != "" {
		s.workDir = dir
	}
	return s
}

// Run executes one full generation run.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	rs := newRunState(runID, s.cfg)

	slog.Info("generation run starting", logfields.RunID(runID))

	stages := []StageDef{
		{StageResolveRevision, s.resolveRevision},
		{StageIntake, s.intake},
		{StageValidate, s.validate},
		{StageAssemble, s.assemble},
		{StageRender, s.renderFormats},
		{StageWriteArtifacts, s.writeArtifacts},
		{StageVerifyLinks, s.verifyLinks},
		{StagePersistHistory, s.persistHistory},
		{StagePublishEvents, s.publishEvents},
	}

	err := s.runStages(ctx, rs, stages)
	report := s.buildReport(rs, err)
	s.recorder.ObserveRunDuration(time.Since(rs.start))
	s.recorder.IncRunOutcome(report.Outcome)

	slog.Info("generation run finished",
		logfields.RunID(runID),
		"outcome", report.Outcome,
		logfields.Diags(len(report.Diagnostics)),
		logfields.DurationMS(float64(time.Since(rs.start).Milliseconds())))

	if err != nil {
		return report, err
	}
	return report, nil
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error. Warning stage errors are recorded and the run continues.
func (s *Service) runStages(ctx context.Context, rs *RunState, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			s.recorder.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, rs)
		dur := time.Since(t0)
		rs.Timings[st.Name] = dur
		s.recorder.ObserveStageDuration(string(st.Name), dur)

		if err == nil {
			s.recorder.IncStageResult(string(st.Name), metrics.ResultSuccess)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			se = newFatalStageError(st.Name, err)
		}
		switch se.Kind {
		case StageErrorWarning:
			s.recorder.IncStageResult(string(st.Name), metrics.ResultWarning)
			slog.Warn("stage completed with warning", logfields.Stage(string(st.Name)), logfields.Error(se.Err))
			continue
		case StageErrorCanceled:
			s.recorder.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return se
		default:
			s.recorder.IncStageResult(string(st.Name), metrics.ResultFatal)
			slog.Error("stage failed", logfields.Stage(string(st.Name)), logfields.Error(se.Err))
			return se
		}
	}
	return nil
}

func (s *Service) resolveRevision(_ context.Context, rs *RunState) error {
	rev, ok := gitinfo.Describe(s.workDir)
	if !ok {
		slog.Debug("no git repository found; runs will not carry a revision")
		return nil
	}
	rs.Revision = rev
	return nil
}

func (s *Service) intake(_ context.Context, rs *RunState) error {
	if len(rs.Cfg.Intake.RecordFiles) > 0 {
		patterns := make([]string, 0, len(rs.Cfg.Intake.RecordFiles))
		for _, p := range rs.Cfg.Intake.RecordFiles {
			if !filepath.IsAbs(p) {
				p = filepath.Join(s.workDir, p)
			}
			patterns = append(patterns, p)
		}
		batches, err := recordfile.LoadGlobs(patterns)
		if err != nil {
			return newFatalStageError(StageIntake, err)
		}
		rs.Batches = append(rs.Batches, batches...)
	}

	if len(rs.Cfg.Intake.GoPackages) > 0 {
		batches, err := gosource.Extract(s.workDir, rs.Cfg.Intake.GoPackages)
		if err != nil {
			return newFatalStageError(StageIntake, err)
		}
		rs.Batches = append(rs.Batches, batches...)
	}

	total := 0
	for _, b := range rs.Batches {
		total += len(b.Raws)
		s.recorder.AddRecords(b.Origin, len(b.Raws))
	}
	slog.Info("intake complete", logfields.RunID(rs.RunID), logfields.Records(total), "batches", len(rs.Batches))
	return nil
}

func (s *Service) validate(_ context.Context, rs *RunState) error {
	validated, diags := record.ValidateAll(rs.Batches)
	rs.Validated = validated
	rs.addDiagnostics(diags, s.recorder)
	return nil
}

func (s *Service) assemble(_ context.Context, rs *RunState) error {
	m, diags := model.Assemble(rs.Validated, model.Options{
		IncludeNonPublic: rs.Cfg.Render.IncludeNonPublic,
	})
	rs.Model = m
	rs.addDiagnostics(diags, s.recorder)
	s.recorder.SetModelSize(m.Len(), m.ExcludedCount())
	return nil
}

func (s *Service) renderFormats(ctx context.Context, rs *RunState) error {
	for _, format := range rs.Cfg.Render.Formats {
		renderer, err := s.newRenderer(format)
		if err != nil {
			return newFatalStageError(StageRender, err)
		}
		if stamper, ok := renderer.(render.RevisionStamper); ok && rs.Revision.Short != "" {
			stamper.StampRevision(rs.Revision.Short)
		}
		result, err := render.NewEngine(rs.RunID, rs.Model, renderer).Run(ctx)
		if err != nil {
			return newFatalStageError(StageRender, err)
		}
		rs.Results = append(rs.Results, result)
		rs.addDiagnostics(result.Diagnostics, s.recorder)
		for i := 0; i < result.LinksTotal-result.LinksUnresolved; i++ {
			s.recorder.IncLinkOutcome(true)
		}
		for i := 0; i < result.LinksUnresolved; i++ {
			s.recorder.IncLinkOutcome(false)
		}
	}
	return nil
}

// newRenderer builds a single-use renderer for one format. Engines never
// share renderers; each run gets fresh state.
func (s *Service) newRenderer(format string) (render.Renderer, error) {
	switch format {
	case "markdown":
		return markdownfmt.New(), nil
	case "html":
		return htmlfmt.New(), nil
	case "paged":
		return pagedfmt.New(s.cfg.Render.PageHeight), nil
	default:
		return nil, apperrors.RenderError("unknown output format").
			WithContext("format", format).
			Build()
	}
}

func (s *Service) writeArtifacts(_ context.Context, rs *RunState) error {
	outDir := rs.Cfg.Output.Directory
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(s.workDir, outDir)
	}
	if rs.Cfg.Output.Clean {
		if err := os.RemoveAll(outDir); err != nil {
			return newFatalStageError(StageWriteArtifacts,
				apperrors.WrapError(err, apperrors.CategoryFileSystem, "clean output directory").Build())
		}
	}

	for _, result := range rs.Results {
		dir := filepath.Join(outDir, result.Format)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return newFatalStageError(StageWriteArtifacts,
				apperrors.WrapError(err, apperrors.CategoryFileSystem, "create output directory").Build())
		}
		for _, artifact := range result.Artifacts {
			path := filepath.Join(dir, artifact.Name)
			if err := os.WriteFile(path, artifact.Content, 0o644); err != nil {
				return newFatalStageError(StageWriteArtifacts,
					apperrors.WrapError(err, apperrors.CategoryFileSystem, "write artifact").
						WithContext("artifact", artifact.Name).
						Build())
			}
			rs.Written[result.Format] = append(rs.Written[result.Format], path)
		}
		slog.Debug("artifacts written", logfields.Format(result.Format), "count", len(result.Artifacts))
	}
	return nil
}

func (s *Service) verifyLinks(_ context.Context, rs *RunState) error {
	if !rs.Cfg.Render.VerifyLinks {
		return nil
	}
	for _, result := range rs.Results {
		if result.Format != "html" {
			continue
		}
		problems, err := linkcheck.Verify(result.Artifacts)
		if err != nil {
			return newWarnStageError(StageVerifyLinks, err)
		}
		rs.Problems = append(rs.Problems, problems...)
	}
	if len(rs.Problems) > 0 {
		slog.Warn("link verification found problems", "problems", len(rs.Problems))
	}
	return nil
}

func (s *Service) persistHistory(ctx context.Context, rs *RunState) error {
	if s.store == nil {
		return nil
	}
	run := runstore.Run{
		ID:         rs.RunID,
		StartedAt:  rs.start.UTC(),
		FinishedAt: time.Now().UTC(),
		Revision:   rs.Revision.Short,
		Outcome:    rs.outcome(),
		Formats:    rs.Cfg.Render.Formats,
		Records:    rs.recordCount(),
		Symbols:    rs.symbolCount(),
		Excluded:   rs.excludedCount(),
	}
	if err := s.store.SaveRun(ctx, run, rs.Diagnostics); err != nil {
		return newWarnStageError(StagePersistHistory, err)
	}
	return nil
}

func (s *Service) publishEvents(ctx context.Context, rs *RunState) error {
	event := events.RunEvent{
		RunID:       rs.RunID,
		Project:     rs.Cfg.Project,
		Revision:    rs.Revision.Short,
		Outcome:     rs.outcome(),
		Formats:     rs.Cfg.Render.Formats,
		Records:     rs.recordCount(),
		Symbols:     rs.symbolCount(),
		Diagnostics: diag.CountByKind(rs.Diagnostics),
	}
	if err := s.publisher.PublishRunCompleted(ctx, event); err != nil {
		return newWarnStageError(StagePublishEvents, err)
	}
	return nil
}

func (s *Service) buildReport(rs *RunState, runErr error) *Report {
	outcome := rs.outcome()
	if runErr != nil {
		outcome = "failed"
		var se *StageError
		if errors.As(runErr, &se) && se.Kind == StageErrorCanceled {
			outcome = "canceled"
		}
	}
	return &Report{
		RunID:       rs.RunID,
		Revision:    rs.Revision,
		Outcome:     outcome,
		StartedAt:   rs.start,
		FinishedAt:  time.Now(),
		Records:     rs.recordCount(),
		Symbols:     rs.symbolCount(),
		Excluded:    rs.excludedCount(),
		Diagnostics: rs.Diagnostics,
		Problems:    rs.Problems,
		Written:     rs.Written,
		Timings:     rs.Timings,
	}
}

func (rs *RunState) addDiagnostics(diags []diag.Diagnostic, recorder metrics.Recorder) {
	rs.Diagnostics = append(rs.Diagnostics, diags...)
	for _, d := range diags {
		recorder.IncDiagnostic(string(d.Kind))
	}
}

// outcome derives the run outcome from accumulated findings. Stage failures
// override this in buildReport.
func (rs *RunState) outcome() string {
	if len(rs.Diagnostics) > 0 || len(rs.Problems) > 0 {
		return "warning"
	}
	return "success"
}

func (rs *RunState) recordCount() int {
	n := 0
	for _, b := range rs.Batches {
		n += len(b.Raws)
	}
	return n
}

func (rs *RunState) symbolCount() int {
	if rs.Model == nil {
		return 0
	}
	return rs.Model.Len()
}

func (rs *RunState) excludedCount() int {
	if rs.Model == nil {
		return 0
	}
	return rs.Model.ExcludedCount()
}
