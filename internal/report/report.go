// Package report collects what happened during one build cycle: the
// per-document validation problems and warnings that never abort a build, and
// the stage timings and outcome of the build itself.
package report

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/marksite/internal/docmodel"
	"git.home.luguber.info/inful/marksite/internal/logfields"
	"git.home.luguber.info/inful/marksite/internal/pipeline"
)

// ValidationError is a recoverable problem with one source file.
type ValidationError struct {
	Path   string
	Kind   docmodel.IssueKind
	Detail string
}

// ResolutionWarning is a wiki reference that did not resolve to exactly one page.
type ResolutionWarning struct {
	Path    string
	Warning pipeline.Warning
}

// BrokenLink is an internal href in rendered output that matches no generated file.
type BrokenLink struct {
	Page string
	Href string
}

// ErrorReport accumulates the non-fatal findings of a build cycle.
type ErrorReport struct {
	Validation  []ValidationError
	Resolution  []ResolutionWarning
	BrokenLinks []BrokenLink
}

// AddIssues records the issues docmodel reported for path.
func (r *ErrorReport) AddIssues(path string, issues []docmodel.Issue) {
	for _, is := range issues {
		r.Validation = append(r.Validation, ValidationError{Path: path, Kind: is.Kind, Detail: is.Detail})
	}
}

// AddWarnings records the wikilink warnings produced while transforming path.
func (r *ErrorReport) AddWarnings(path string, warnings []pipeline.Warning) {
	for _, w := range warnings {
		r.Resolution = append(r.Resolution, ResolutionWarning{Path: path, Warning: w})
	}
}

// AddBrokenLink records an unresolvable internal href.
func (r *ErrorReport) AddBrokenLink(page, href string) {
	r.BrokenLinks = append(r.BrokenLinks, BrokenLink{Page: page, Href: href})
}

// Empty reports whether nothing was recorded.
func (r *ErrorReport) Empty() bool {
	return len(r.Validation) == 0 && len(r.Resolution) == 0 && len(r.BrokenLinks) == 0
}

// Count returns the number of recorded findings.
func (r *ErrorReport) Count() int {
	return len(r.Validation) + len(r.Resolution) + len(r.BrokenLinks)
}

// Log writes one warning line per finding.
func (r *ErrorReport) Log(logger *slog.Logger) {
	for _, v := range r.Validation {
		logger.Warn("Invalid document",
			logfields.Path(v.Path),
			logfields.Kind(string(v.Kind)),
			slog.String("detail", v.Detail))
	}
	for _, w := range r.Resolution {
		attrs := []any{
			logfields.Path(w.Path),
			logfields.Kind(string(w.Warning.Kind)),
			slog.String("reference", w.Warning.Reference),
		}
		if len(w.Warning.Candidates) > 0 {
			attrs = append(attrs,
				slog.Any("candidates", w.Warning.Candidates),
				slog.String("chosen", w.Warning.Chosen))
		}
		logger.Warn("Wikilink did not resolve to a single page", attrs...)
	}
	for _, b := range r.BrokenLinks {
		logger.Warn("Broken internal link", logfields.Path(b.Page), logfields.URL(b.Href))
	}
}

// Summary renders a short human readable digest, one finding per line.
func (r *ErrorReport) Summary() string {
	if r.Empty() {
		return "no problems found"
	}
	var b strings.Builder
	for _, v := range r.Validation {
		fmt.Fprintf(&b, "%s: %s", v.Path, v.Kind)
		if v.Detail != "" {
			fmt.Fprintf(&b, " (%s)", v.Detail)
		}
		b.WriteByte('\n')
	}
	for _, w := range r.Resolution {
		switch w.Warning.Kind {
		case pipeline.WarningAmbiguous:
			fmt.Fprintf(&b, "%s: [[%s]] is ambiguous, using %s (candidates: %s)\n",
				w.Path, w.Warning.Reference, w.Warning.Chosen, strings.Join(w.Warning.Candidates, ", "))
		default:
			fmt.Fprintf(&b, "%s: [[%s]] does not match any page\n", w.Path, w.Warning.Reference)
		}
	}
	for _, l := range r.BrokenLinks {
		fmt.Fprintf(&b, "%s: broken link %s\n", l.Page, l.Href)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// BuildKind names the scope of a build cycle.
type BuildKind string

const (
	KindFull     BuildKind = "full"
	KindMarkdown BuildKind = "markdown"
	KindAssets   BuildKind = "assets"
)

// Outcome is the final result of a build cycle.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeWarning Outcome = "warning"
	OutcomeFailed  Outcome = "failed"
)

// StageName identifies a timed part of a build.
type StageName string

const (
	StageScan   StageName = "scan"
	StageRender StageName = "render"
	StageCommit StageName = "commit"
	StageAssets StageName = "assets"
)

// BuildReport captures timings and counts for one build cycle.
type BuildReport struct {
	ID             string
	Kind           BuildKind
	Start          time.Time
	End            time.Time
	StageDurations map[StageName]time.Duration
	Documents      int
	Excluded       int
	Rendered       int
	Written        int
	Pruned         int
	Outcome        Outcome
	Err            error
	Problems       ErrorReport
}

// NewBuildReport starts a report for a build of kind identified by id.
func NewBuildReport(id string, kind BuildKind) *BuildReport {
	return &BuildReport{
		ID:             id,
		Kind:           kind,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
	}
}

// RecordStage stores the duration of a stage that started at start.
func (r *BuildReport) RecordStage(stage StageName, start time.Time) time.Duration {
	d := time.Since(start)
	r.StageDurations[stage] += d
	return d
}

// Finish stamps the end time and derives the outcome from err and the
// recorded problems.
func (r *BuildReport) Finish(err error) {
	r.End = time.Now()
	r.Err = err
	switch {
	case err != nil:
		r.Outcome = OutcomeFailed
	case !r.Problems.Empty():
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Duration is the wall time of the build.
func (r *BuildReport) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}
