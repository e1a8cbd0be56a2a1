package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
	require.False(t, had)
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\ntitle: x\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: x\r\n"), fm)
	require.Equal(t, []byte("body\r\n"), body)
}

func TestSplit_EmptyBlockAndClosingAtEOF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\nbody"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("body"), body)

	fm, body, had, err = Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: x\n"), fm)
	require.Empty(t, body)
}

func TestParse_YAML(t *testing.T) {
	f := Parse([]byte("title: Hello\nsummary: Short\ntags: [go, web, go]\npublish: false\ndate_created: 2024-01-02\ntemplate: note.html\n"))

	assert.False(t, f.LineFallback)
	assert.Equal(t, "Hello", f.Title)
	assert.Equal(t, "Short", f.Summary)
	assert.Equal(t, "note.html", f.Template)
	assert.Equal(t, []string{"go", "web"}, f.Tags)
	require.NotNil(t, f.Publish)
	assert.False(t, *f.Publish)
	assert.Equal(t, "2024-01-02", f.DateCreated)
}

func TestParse_CommaSeparatedTags(t *testing.T) {
	f := Parse([]byte("tags: go, web , ,notes\n"))
	assert.Equal(t, []string{"go", "web", "notes"}, f.Tags)
}

func TestParse_InvalidYAMLFallsBackToLines(t *testing.T) {
	f := Parse([]byte("title: Part 1: Intro\ntag: a, b\npublish: true\n"))

	assert.True(t, f.LineFallback)
	assert.Equal(t, "Part 1: Intro", f.Title)
	assert.Equal(t, []string{"a", "b"}, f.Tags)
	require.NotNil(t, f.Publish)
	assert.True(t, *f.Publish)
}

func TestParse_EmptyBlock(t *testing.T) {
	f := Parse([]byte("  \n"))
	assert.Empty(t, f.Title)
	assert.Nil(t, f.Publish)
	assert.False(t, f.LineFallback)
}

func TestParse_TimestampsStayRaw(t *testing.T) {
	f := Parse([]byte("date_updated: 2024-03-05 10:15:00\n"))
	assert.Equal(t, "2024-03-05 10:15:00", f.DateUpdated)
}
