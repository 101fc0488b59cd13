package site

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookforge/bookforge/internal/book"
	"github.com/bookforge/bookforge/internal/manifest"
	"github.com/bookforge/bookforge/internal/metrics"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // build must abort
	StageErrorWarning  StageErrorKind = "warning"  // record and continue
	StageErrorCanceled StageErrorKind = "canceled" // context cancellation
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// BuildState carries mutable state across stages.
type BuildState struct {
	Generator *Generator
	Report    *BuildReport

	Chapters []*book.Chapter
	TOC      *book.TOC
	Assets   []book.Asset

	// Pages maps output-relative paths to rendered bytes, populated by the
	// render and index stages and flushed by the write stage.
	Pages map[string][]byte

	OldManifest *manifest.Manifest
	Manifest    *manifest.Manifest

	tmpl  *templateSet
	start time.Time
}

// templates returns the parsed template set, loading it on first use.
func (bs *BuildState) templates() (*templateSet, error) {
	if bs.tmpl != nil {
		return bs.tmpl, nil
	}
	ts, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	bs.tmpl = ts
	return ts, nil
}

func newBuildState(g *Generator, report *BuildReport) *BuildState {
	return &BuildState{
		Generator:   g,
		Report:      report,
		Pages:       make(map[string][]byte),
		Manifest:    manifest.New(),
		OldManifest: manifest.New(),
		start:       time.Now(),
	}
}

type namedStage struct {
	name string
	fn   Stage
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal or canceled error. Warning-class errors are recorded and the
// pipeline continues.
func runStages(ctx context.Context, bs *BuildState, stages []namedStage) error {
	rec := bs.Generator.recorder
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			bs.Report.addError(se)
			rec.IncStageResult(st.name, metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[st.name] = dur
		rec.ObserveStageDuration(st.name, dur)

		if err == nil {
			rec.IncStageResult(st.name, metrics.ResultSuccess)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			se = newFatalStageError(st.name, err)
		}
		switch se.Kind {
		case StageErrorWarning:
			bs.Report.addWarning(se)
			rec.IncStageResult(st.name, metrics.ResultWarning)
		case StageErrorCanceled:
			bs.Report.addError(se)
			rec.IncStageResult(st.name, metrics.ResultCanceled)
			return se
		default:
			bs.Report.addError(se)
			rec.IncStageResult(st.name, metrics.ResultFatal)
			return se
		}
	}
	return nil
}
