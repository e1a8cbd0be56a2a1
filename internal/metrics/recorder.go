package metrics

import "time"

// Recorder defines observability hooks for builds and the watch loop.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(kind string, d time.Duration)
	IncBuildOutcome(kind, outcome string)
	AddDocumentsRendered(n int)
	IncRebuildRequest(kind string)
	SetBuildInProgress(running bool)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string, string)             {}
func (NoopRecorder) AddDocumentsRendered(int)                   {}
func (NoopRecorder) IncRebuildRequest(string)                   {}
func (NoopRecorder) SetBuildInProgress(bool)                    {}
