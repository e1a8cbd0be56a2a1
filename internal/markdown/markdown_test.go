package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(s Stream) []Event {
	var out []Event
	for ev := range s {
		out = append(out, ev)
	}
	return out
}

func TestRender_Passthrough(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading and emphasis", "# Hello\n\nSome *em* text.\n", "<h1>Hello</h1>\n<p>Some <em>em</em> text.</p>\n"},
		{"link with title", "[a](b.md \"T\")\n", "<p><a href=\"b.md\" title=\"T\">a</a></p>\n"},
		{"image alt is plain text", "![alt *x*](img.png)\n", "<p><img src=\"img.png\" alt=\"alt x\"></p>\n"},
		{"code span escapes", "`a<b`\n", "<p><code>a&lt;b</code></p>\n"},
		{"fenced code", "```go\nx := 1\n```\n", "<pre><code class=\"language-go\">x := 1\n</code></pre>\n"},
		{"autolink", "<https://x.org>\n", "<p><a href=\"https://x.org\">https://x.org</a></p>\n"},
		{"inline html", "a <span>b</span>\n", "<p>a <span>b</span></p>\n"},
		{"list", "- a\n- b\n", "<ul>\n<li>a</li>\n<li>b</li>\n</ul>\n"},
		{"strikethrough", "~~gone~~\n", "<p><del>gone</del></p>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenize_HeadingWithLink(t *testing.T) {
	events := collect(Tokenize([]byte("# Hi [x](y)\n")))
	require.Len(t, events, 6)

	assert.Equal(t, EventStart, events[0].Kind)
	assert.Equal(t, TagHeading, events[0].Tag.Kind)
	assert.Equal(t, 1, events[0].Tag.Level)
	assert.Equal(t, EventText, events[1].Kind)
	assert.Equal(t, TagLink, events[2].Tag.Kind)
	assert.Equal(t, "y", events[2].Tag.Destination)
	assert.Equal(t, "x", events[3].Text)
	assert.Equal(t, EventEnd, events[4].Kind)
	assert.Equal(t, TagLink, events[4].Tag.Kind)
	assert.Equal(t, EventEnd, events[5].Kind)
	assert.Equal(t, TagHeading, events[5].Tag.Kind)

	assert.Equal(t, "Hi x", PlainText(events))
}

func TestTokenize_ExplicitHeadingID(t *testing.T) {
	events := collect(Tokenize([]byte("## Title {#custom}\n")))
	require.NotEmpty(t, events)
	assert.Equal(t, TagHeading, events[0].Tag.Kind)
	assert.Equal(t, "custom", events[0].Tag.ID)
	assert.Equal(t, "Title", PlainText(events))
}

func TestTokenize_FencedCodeIsOneTextEvent(t *testing.T) {
	events := collect(Tokenize([]byte("```python\na = 1\nb = 2\n```\n")))
	require.Len(t, events, 3)
	assert.True(t, events[0].Tag.Fenced)
	assert.Equal(t, "python", events[0].Tag.Language)
	assert.Equal(t, "a = 1\nb = 2\n", events[1].Text)
	assert.Equal(t, EventEnd, events[2].Kind)
}

func TestTokenize_EmailAutolinkGetsMailto(t *testing.T) {
	events := collect(Tokenize([]byte("<me@example.com>\n")))
	var link Event
	for _, ev := range events {
		if ev.Kind == EventStart && ev.Tag.Kind == TagLink {
			link = ev
		}
	}
	assert.Equal(t, "mailto:me@example.com", link.Tag.Destination)
}

func TestTokenize_StopsEarly(t *testing.T) {
	count := 0
	for range Tokenize([]byte("# a\n\n# b\n\n# c\n")) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestSerializer_SynthesizedEvents(t *testing.T) {
	s := NewSerializer(nil)
	out, err := s.RenderEvents([]Event{
		Start(Tag{Kind: TagLink, Destination: "https://example.com/my file.pdf"}),
		Text("a < b"),
		End(Tag{Kind: TagLink}),
		HTML("<br>"),
	})
	require.NoError(t, err)
	assert.Equal(t, `<a href="https://example.com/my%20file.pdf">a &lt; b</a><br>`, out)
}

func TestCodeRanges(t *testing.T) {
	body := []byte("Text `span` more.\n\n```go\nx := 1\n```\n\n    indented\n")
	ranges := CodeRanges(body)

	require.Len(t, ranges, 3)
	got := make([]string, 0, len(ranges))
	for _, r := range ranges {
		got = append(got, string(body[r.Start:r.Stop]))
	}
	assert.Equal(t, []string{"span", "x := 1\n", "indented\n"}, got)
	assert.True(t, ranges[0].Overlaps(4, 7))
	assert.False(t, ranges[0].Overlaps(0, 4))
}
