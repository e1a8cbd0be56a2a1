package report

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/marksite/internal/docmodel"
	"git.home.luguber.info/inful/marksite/internal/pipeline"
)

func TestErrorReport_Summary(t *testing.T) {
	var r ErrorReport
	assert.True(t, r.Empty())
	assert.Equal(t, "no problems found", r.Summary())

	r.AddIssues("a.md", []docmodel.Issue{{Kind: docmodel.IssueInvalidDateCreated, Detail: "yesterday"}})
	r.AddWarnings("b.md", []pipeline.Warning{
		{Kind: pipeline.WarningAmbiguous, Reference: "dup", Candidates: []string{"x/dup", "y/dup"}, Chosen: "x/dup"},
		{Kind: pipeline.WarningUnresolved, Reference: "nope"},
	})
	r.AddBrokenLink("c.html", "https://example.com/gone.html")

	require.Equal(t, 4, r.Count())
	assert.Equal(t,
		"a.md: invalid_date_created (yesterday)\n"+
			"b.md: [[dup]] is ambiguous, using x/dup (candidates: x/dup, y/dup)\n"+
			"b.md: [[nope]] does not match any page\n"+
			"c.html: broken link https://example.com/gone.html",
		r.Summary())
}

func TestErrorReport_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var r ErrorReport
	r.AddIssues("a.md", []docmodel.Issue{{Kind: docmodel.IssueMissingFrontmatter}})
	r.Log(logger)

	assert.Contains(t, buf.String(), "path=a.md")
	assert.Contains(t, buf.String(), "kind=missing_frontmatter")
}

func TestBuildReport_Finish(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		problem bool
		want    Outcome
	}{
		{"clean", nil, false, OutcomeSuccess},
		{"with problems", nil, true, OutcomeWarning},
		{"failed", errors.New("boom"), true, OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewBuildReport("id", KindFull)
			if tt.problem {
				r.Problems.AddBrokenLink("p", "h")
			}
			r.Finish(tt.err)
			assert.Equal(t, tt.want, r.Outcome)
			assert.False(t, r.End.Before(r.Start))
		})
	}
}

func TestBuildReport_RecordStageAccumulates(t *testing.T) {
	r := NewBuildReport("id", KindMarkdown)
	start := time.Now().Add(-time.Millisecond)
	r.RecordStage(StageScan, start)
	first := r.StageDurations[StageScan]
	r.RecordStage(StageScan, start)
	assert.Greater(t, r.StageDurations[StageScan], first)
}
