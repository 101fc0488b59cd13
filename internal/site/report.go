package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bookforge/bookforge/internal/manifest"
)

// Outcome is the final classification of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// BuildReport aggregates the result of one build run.
//
// The report lives outside the output directory so generated output stays a
// pure function of content (see manifest determinism).
type BuildReport struct {
	BuildID        string                   `json:"build_id"`
	StartedAt      time.Time                `json:"started_at"`
	Duration       time.Duration            `json:"duration"`
	Outcome        Outcome                  `json:"outcome"`
	PagesRendered  int                      `json:"pages_rendered"`
	AssetsCopied   int                      `json:"assets_copied"`
	ChaptersDraft  int                      `json:"chapters_draft"`
	StageDurations map[string]time.Duration `json:"stage_durations"`
	Errors         []string                 `json:"errors,omitempty"`
	Warnings       []string                 `json:"warnings,omitempty"`
	Diff           manifest.Diff            `json:"diff"`
}

func newBuildReport(buildID string) *BuildReport {
	return &BuildReport{
		BuildID:        buildID,
		StartedAt:      time.Now(),
		Outcome:        OutcomeSuccess,
		StageDurations: make(map[string]time.Duration),
	}
}

func (r *BuildReport) addError(se *StageError) {
	r.Errors = append(r.Errors, se.Error())
	if se.Kind == StageErrorCanceled {
		r.Outcome = OutcomeCanceled
		return
	}
	r.Outcome = OutcomeFailed
}

func (r *BuildReport) addWarning(se *StageError) {
	r.Warnings = append(r.Warnings, se.Error())
	if r.Outcome == OutcomeSuccess {
		r.Outcome = OutcomeWarning
	}
}

// Persist writes the report as JSON into stateDir.
func (r *BuildReport) Persist(stateDir string) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal build report: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(filepath.Join(stateDir, "build-report.json"), data, 0o644)
}
