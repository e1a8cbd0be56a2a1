package markdown

import (
	"bufio"
	"bytes"
	"strconv"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// funcRegistry collects goldmark node renderer funcs by node kind.
type funcRegistry map[gmast.NodeKind]renderer.NodeRendererFunc

func (r funcRegistry) Register(kind gmast.NodeKind, fn renderer.NodeRendererFunc) {
	r[kind] = fn
}

func newFuncRegistry() funcRegistry {
	reg := make(funcRegistry)
	for _, nr := range []renderer.NodeRenderer{
		html.NewRenderer(html.WithUnsafe()),
		extension.NewTableHTMLRenderer(),
		extension.NewStrikethroughHTMLRenderer(),
		extension.NewTaskCheckBoxHTMLRenderer(),
		extension.NewFootnoteHTMLRenderer(),
	} {
		nr.RegisterFuncs(reg)
	}
	return reg
}

// Serializer renders an event stream to HTML. Headings, links, images, code
// and synthesized text are written directly; every other element is rendered
// by goldmark's own node renderers from the event's node.
type Serializer struct {
	source []byte
	funcs  funcRegistry
}

// NewSerializer returns a serializer for streams produced from source.
func NewSerializer(source []byte) *Serializer {
	return &Serializer{source: source, funcs: newFuncRegistry()}
}

// Render serializes every event of stream.
func (s *Serializer) Render(stream Stream) (string, error) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	st := &renderState{}
	for ev := range stream {
		if err := s.write(w, st, ev); err != nil {
			return "", err
		}
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderEvents serializes a buffered slice of events.
func (s *Serializer) RenderEvents(events []Event) (string, error) {
	return s.Render(func(yield func(Event) bool) {
		for _, ev := range events {
			if !yield(ev) {
				return
			}
		}
	})
}

type renderState struct {
	imageDepth int
	imageTitle []string
	skipUntil  gmast.Node
}

func (s *Serializer) write(w *bufio.Writer, st *renderState, ev Event) error {
	if st.skipUntil != nil {
		if ev.Kind == EventEnd && ev.Node == st.skipUntil {
			st.skipUntil = nil
			return s.delegate(w, st, ev, false)
		}
		return nil
	}

	// Inside an image only the plain text of the alt attribute is written.
	if st.imageDepth > 0 {
		imageTag := (ev.Kind == EventStart || ev.Kind == EventEnd) && ev.Tag.Kind == TagImage
		if !imageTag {
			if ev.Kind == EventText {
				_, _ = w.Write(util.EscapeHTML([]byte(ev.Text)))
			}
			return nil
		}
	}

	switch ev.Kind {
	case EventHTML:
		_, _ = w.WriteString(ev.Text)
		return nil
	case EventText:
		if ev.Node != nil {
			return s.delegate(w, st, ev, true)
		}
		_, _ = w.Write(util.EscapeHTML([]byte(ev.Text)))
		return nil
	}

	entering := ev.Kind == EventStart
	switch ev.Tag.Kind {
	case TagHeading:
		if entering {
			_, _ = w.WriteString("<h" + strconv.Itoa(ev.Tag.Level))
			if ev.Tag.ID != "" {
				_, _ = w.WriteString(` id="`)
				_, _ = w.Write(util.EscapeHTML([]byte(ev.Tag.ID)))
				_ = w.WriteByte('"')
			}
			_ = w.WriteByte('>')
		} else {
			_, _ = w.WriteString("</h" + strconv.Itoa(ev.Tag.Level) + ">\n")
		}
	case TagLink:
		if entering {
			_, _ = w.WriteString(`<a href="`)
			writeURL(w, ev.Tag.Destination)
			_ = w.WriteByte('"')
			if ev.Tag.Title != "" {
				_, _ = w.WriteString(` title="`)
				html.DefaultWriter.Write(w, []byte(ev.Tag.Title))
				_ = w.WriteByte('"')
			}
			_ = w.WriteByte('>')
		} else {
			_, _ = w.WriteString("</a>")
		}
	case TagImage:
		if entering {
			st.imageDepth++
			st.imageTitle = append(st.imageTitle, ev.Tag.Title)
			_, _ = w.WriteString(`<img src="`)
			writeURL(w, ev.Tag.Destination)
			_, _ = w.WriteString(`" alt="`)
		} else {
			st.imageDepth--
			title := st.imageTitle[len(st.imageTitle)-1]
			st.imageTitle = st.imageTitle[:len(st.imageTitle)-1]
			_ = w.WriteByte('"')
			if title != "" {
				_, _ = w.WriteString(` title="`)
				html.DefaultWriter.Write(w, []byte(title))
				_ = w.WriteByte('"')
			}
			_ = w.WriteByte('>')
		}
	case TagCodeBlock:
		if entering {
			_, _ = w.WriteString("<pre><code")
			if ev.Tag.Language != "" {
				_, _ = w.WriteString(` class="language-`)
				_, _ = w.Write(util.EscapeHTML([]byte(ev.Tag.Language)))
				_ = w.WriteByte('"')
			}
			_ = w.WriteByte('>')
		} else {
			_, _ = w.WriteString("</code></pre>\n")
		}
	case TagCodeSpan:
		if entering {
			_, _ = w.WriteString("<code>")
		} else {
			_, _ = w.WriteString("</code>")
		}
	default:
		return s.delegate(w, st, ev, entering)
	}
	return nil
}

// delegate renders ev's node with the goldmark renderer registered for it.
func (s *Serializer) delegate(w *bufio.Writer, st *renderState, ev Event, entering bool) error {
	if ev.Node == nil {
		return nil
	}
	fn, ok := s.funcs[ev.Node.Kind()]
	if !ok {
		return nil
	}
	status, err := fn(w, s.source, ev.Node, entering)
	if err != nil {
		return err
	}
	if entering && ev.Kind == EventStart && status == gmast.WalkSkipChildren {
		st.skipUntil = ev.Node
	}
	return nil
}

func writeURL(w *bufio.Writer, dest string) {
	_, _ = w.Write(util.EscapeHTML(util.URLEscape([]byte(dest), true)))
}

// Render is a convenience that tokenizes and serializes body unchanged.
func Render(body []byte) (string, error) {
	return NewSerializer(body).Render(Tokenize(body))
}
