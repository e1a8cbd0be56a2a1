package markdown

import (
	"bytes"
	"iter"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
)

// EventKind is the kind of a stream event.
type EventKind int

const (
	EventStart EventKind = iota
	EventEnd
	EventText
	EventHTML
)

// TagKind identifies the element a start or end event opens or closes.
type TagKind int

const (
	TagOther TagKind = iota
	TagHeading
	TagLink
	TagImage
	TagCodeBlock
	TagCodeSpan
)

// Tag describes the element of a start or end event. Only the fields that
// belong to Kind are set.
type Tag struct {
	Kind TagKind

	Level int    // TagHeading
	ID    string // TagHeading, explicit `{#id}`

	Destination string // TagLink, TagImage
	Title       string // TagLink, TagImage

	Fenced   bool   // TagCodeBlock
	Language string // TagCodeBlock
}

// Event is one item of the token stream. Node is the goldmark node the event
// was produced from; it is nil for events synthesized by transforms.
type Event struct {
	Kind EventKind
	Tag  Tag
	Text string // EventText content or EventHTML markup
	Node gmast.Node
}

// Stream is a lazily produced sequence of events.
type Stream = iter.Seq[Event]

// Start returns a synthesized start event.
func Start(tag Tag) Event { return Event{Kind: EventStart, Tag: tag} }

// End returns a synthesized end event.
func End(tag Tag) Event { return Event{Kind: EventEnd, Tag: tag} }

// Text returns a synthesized text event; its content is escaped on output.
func Text(s string) Event { return Event{Kind: EventText, Text: s} }

// HTML returns a synthesized raw HTML event.
func HTML(s string) Event { return Event{Kind: EventHTML, Text: s} }

// Tokenize parses body and returns its event stream. The AST is walked while
// the consumer pulls, so a consumer that stops early stops the walk.
func Tokenize(body []byte) Stream {
	return Events(ParseBody(body), body)
}

// Events walks an already parsed document.
func Events(root gmast.Node, source []byte) Stream {
	return func(yield func(Event) bool) {
		_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
			ev, skip, ok := toEvent(n, source, entering)
			if !ok {
				return gmast.WalkContinue, nil
			}
			if !yield(ev) {
				return gmast.WalkStop, nil
			}
			if skip {
				// Leaf-like nodes carry their content in a single text event.
				if !yield(leafText(n, source)) {
					return gmast.WalkStop, nil
				}
				return gmast.WalkSkipChildren, nil
			}
			return gmast.WalkContinue, nil
		})
	}
}

func toEvent(n gmast.Node, source []byte, entering bool) (ev Event, skip bool, ok bool) {
	kind := EventStart
	if !entering {
		kind = EventEnd
	}

	switch node := n.(type) {
	case *gmast.Document:
		return Event{}, false, false
	case *gmast.Text:
		if !entering {
			return Event{}, false, false
		}
		return Event{Kind: EventText, Text: string(node.Segment.Value(source)), Node: n}, false, true
	case *gmast.String:
		if !entering {
			return Event{}, false, false
		}
		return Event{Kind: EventText, Text: string(node.Value), Node: n}, false, true
	case *gmast.RawHTML:
		if !entering {
			return Event{}, false, false
		}
		var b bytes.Buffer
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			b.Write(seg.Value(source))
		}
		return HTML(b.String()), false, true
	case *gmast.HTMLBlock:
		if !entering {
			if node.HasClosure() {
				return HTML(string(node.ClosureLine.Value(source))), false, true
			}
			return Event{}, false, false
		}
		return HTML(string(linesOf(n, source))), false, true
	case *gmast.Heading:
		tag := Tag{Kind: TagHeading, Level: node.Level}
		if v, found := node.AttributeString("id"); found {
			if b, isBytes := v.([]byte); isBytes {
				tag.ID = string(b)
			}
		}
		return Event{Kind: kind, Tag: tag, Node: n}, false, true
	case *gmast.Link:
		tag := Tag{Kind: TagLink, Destination: string(node.Destination), Title: string(node.Title)}
		return Event{Kind: kind, Tag: tag, Node: n}, false, true
	case *gmast.AutoLink:
		url := string(node.URL(source))
		if node.AutoLinkType == gmast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
			url = "mailto:" + url
		}
		return Event{Kind: kind, Tag: Tag{Kind: TagLink, Destination: url}, Node: n}, entering, true
	case *gmast.Image:
		tag := Tag{Kind: TagImage, Destination: string(node.Destination), Title: string(node.Title)}
		return Event{Kind: kind, Tag: tag, Node: n}, false, true
	case *gmast.CodeSpan:
		return Event{Kind: kind, Tag: Tag{Kind: TagCodeSpan}, Node: n}, entering, true
	case *gmast.FencedCodeBlock:
		tag := Tag{Kind: TagCodeBlock, Fenced: true, Language: string(node.Language(source))}
		return Event{Kind: kind, Tag: tag, Node: n}, entering, true
	case *gmast.CodeBlock:
		return Event{Kind: kind, Tag: Tag{Kind: TagCodeBlock}, Node: n}, entering, true
	default:
		return Event{Kind: kind, Tag: Tag{Kind: TagOther}, Node: n}, false, true
	}
}

// leafText returns the text content of a node whose children are not walked.
func leafText(n gmast.Node, source []byte) Event {
	switch node := n.(type) {
	case *gmast.AutoLink:
		return Text(string(node.Label(source)))
	case *gmast.CodeSpan:
		var b bytes.Buffer
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*gmast.Text); ok {
				v := t.Segment.Value(source)
				if bytes.HasSuffix(v, []byte("\n")) {
					v = append(v[:len(v)-1:len(v)-1], ' ')
				}
				b.Write(v)
			}
		}
		return Text(b.String())
	default:
		return Text(string(linesOf(n, source)))
	}
}

func linesOf(n gmast.Node, source []byte) []byte {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.Bytes()
}

// PlainText concatenates the text of every text event in events.
func PlainText(events []Event) string {
	var b strings.Builder
	for _, ev := range events {
		if ev.Kind == EventText {
			b.WriteString(ev.Text)
		}
	}
	return b.String()
}
