package events

import (
	"time"

	"git.home.luguber.info/inful/marksite/internal/report"
)

// RebuildKind is the scope a file change asks for.
type RebuildKind int

const (
	RebuildNone RebuildKind = iota
	RebuildAssets
	RebuildMarkdown
	RebuildFull
)

func (k RebuildKind) String() string {
	switch k {
	case RebuildAssets:
		return "assets"
	case RebuildMarkdown:
		return "markdown"
	case RebuildFull:
		return "full"
	default:
		return "none"
	}
}

// ChangeDetected is published by the watcher for every classified file
// system event.
type ChangeDetected struct {
	Kind       RebuildKind
	Path       string
	DetectedAt time.Time
}

// RebuildNow is published by the coordinator once it decided what to build.
// Assets is set when asset changes were merged into a markdown or full plan.
type RebuildNow struct {
	Kind         RebuildKind
	Assets       bool
	RequestCount int
	FirstRequest time.Time
	LastRequest  time.Time
	Cause        string // "quiet", "max_delay" or "after_running"
}

// RebuildFinished is published by the builder after every rebuild.
type RebuildFinished struct {
	Kind    RebuildKind
	BuildID string
	Outcome report.Outcome
	Err     error
}
