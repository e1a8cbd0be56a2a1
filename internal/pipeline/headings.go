package pipeline

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/marksite/internal/docmodel"
	"git.home.luguber.info/inful/marksite/internal/markdown"
	"git.home.luguber.info/inful/marksite/internal/slug"
)

// HeadingTransform gives every heading an id and collects the table of
// contents. The id is the explicit `{#id}` when present, otherwise the slug of
// the heading's text. Ids are unique per document: a repeated id gets a
// `-1`, `-2`, ... suffix. Each heading leaves the transform as one HTML event.
type HeadingTransform struct {
	DocURL     string
	Serializer *markdown.Serializer

	TOC []docmodel.LinkRecord
	Err error

	seen map[string]bool
}

func (t *HeadingTransform) Apply(upstream markdown.Stream) markdown.Stream {
	return func(yield func(markdown.Event) bool) {
		var (
			open  *markdown.Tag
			inner []markdown.Event
		)
		for ev := range upstream {
			if open == nil {
				if ev.Kind == markdown.EventStart && ev.Tag.Kind == markdown.TagHeading {
					tag := ev.Tag
					open = &tag
					inner = inner[:0]
					continue
				}
				if !yield(ev) {
					return
				}
				continue
			}

			if ev.Kind == markdown.EventEnd && ev.Tag.Kind == markdown.TagHeading {
				html, ok := t.finish(*open, inner)
				open = nil
				if !ok || !yield(markdown.HTML(html)) {
					return
				}
				continue
			}
			inner = append(inner, ev)
		}
	}
}

func (t *HeadingTransform) finish(tag markdown.Tag, inner []markdown.Event) (string, bool) {
	text := strings.TrimSpace(markdown.PlainText(inner))
	id := tag.ID
	if id == "" {
		id = slug.Make(text)
	}
	id = t.unique(id)

	body, err := t.Serializer.RenderEvents(inner)
	if err != nil {
		t.Err = err
		return "", false
	}

	level := strconv.Itoa(tag.Level)
	var b strings.Builder
	b.WriteString("<h" + level)
	if id != "" {
		b.WriteString(` id="`)
		b.Write(util.EscapeHTML([]byte(id)))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	b.WriteString(body)
	b.WriteString("</h" + level + ">\n")

	t.TOC = append(t.TOC, docmodel.LinkRecord{
		URL:          t.DocURL + "#" + id,
		Internal:     true,
		Title:        text,
		Kind:         docmodel.KindTOC,
		HeadingLevel: tag.Level,
	})
	return b.String(), true
}

func (t *HeadingTransform) unique(id string) string {
	if id == "" {
		return id
	}
	if t.seen == nil {
		t.seen = make(map[string]bool)
	}
	candidate := id
	for n := 1; t.seen[candidate]; n++ {
		candidate = id + "-" + strconv.Itoa(n)
	}
	t.seen[candidate] = true
	return candidate
}

// HighlightTransform replaces fenced code blocks with highlighted HTML.
// Indented code blocks pass through unchanged. A malformed fence language
// stops the stream and is reported through Err.
type HighlightTransform struct {
	Highlighter interface {
		Block(lang, code string) (string, error)
	}

	Err error
}

func (t *HighlightTransform) Apply(upstream markdown.Stream) markdown.Stream {
	return func(yield func(markdown.Event) bool) {
		var (
			lang string
			code strings.Builder
			in   bool
		)
		for ev := range upstream {
			switch {
			case !in && ev.Kind == markdown.EventStart && ev.Tag.Kind == markdown.TagCodeBlock && ev.Tag.Fenced:
				in = true
				lang = ev.Tag.Language
				code.Reset()
				continue
			case in && ev.Kind == markdown.EventText:
				code.WriteString(ev.Text)
				continue
			case in && ev.Kind == markdown.EventEnd && ev.Tag.Kind == markdown.TagCodeBlock:
				in = false
				html, err := t.Highlighter.Block(lang, code.String())
				if err != nil {
					t.Err = err
					return
				}
				ev = markdown.HTML(html)
			case in:
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}
