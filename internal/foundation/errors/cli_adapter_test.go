package errors

import (
	"bytes"
	stderrors "errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "highlight", err: HighlightError("bad fence").Build(), expected: 11},
		{name: "template", err: TemplateError("missing").Build(), expected: 11},
		{name: "filesystem", err: FileSystemError("io").Build(), expected: 11},
		{name: "runtime", err: RuntimeError("watcher").Build(), expected: 12},
		{name: "internal", err: InternalError("bug").Build(), expected: 10},
		{name: "unclassified", err: stderrors.New("unknown"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := WrapError(cause, CategoryFileSystem, "write page").
		Fatal().
		WithContext("path", "_site/index.html").
		Build()

	quiet := NewCLIErrorAdapter(false, nil)
	assert.Equal(t, "Error: write page (_site/index.html): permission denied", quiet.FormatError(err))

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Equal(t, err.Error(), verbose.FormatError(err))

	assert.Equal(t, "Error: boom", quiet.FormatError(stderrors.New("boom")))
	assert.Empty(t, quiet.FormatError(nil))
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var buf bytes.Buffer
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))

	code := a.Report(&buf, HighlightError("unknown fence language").WithContext("path", "a.md").Build())
	assert.Equal(t, ExitBuild, code)
	assert.Equal(t, "Error: unknown fence language (a.md)\n", buf.String())

	buf.Reset()
	assert.Equal(t, ExitOK, a.Report(&buf, nil))
	assert.Empty(t, buf.String())
}
