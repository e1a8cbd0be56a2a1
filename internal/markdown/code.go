package markdown

import (
	gmast "github.com/yuin/goldmark/ast"
)

// Range is a half-open byte range [Start, Stop) of a markdown body.
type Range struct {
	Start, Stop int
}

// Overlaps reports whether [start, stop) shares a byte with r.
func (r Range) Overlaps(start, stop int) bool {
	return start < r.Stop && r.Start < stop
}

// CodeRanges returns the byte ranges holding the content of code blocks and
// inline code spans of body, in document order.
func CodeRanges(body []byte) []Range {
	var ranges []Range
	_ = gmast.Walk(ParseBody(body), func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch n.Kind() {
		case gmast.KindFencedCodeBlock, gmast.KindCodeBlock:
			if lines := n.Lines(); lines.Len() > 0 {
				ranges = append(ranges, Range{Start: lines.At(0).Start, Stop: lines.At(lines.Len() - 1).Stop})
			}
			return gmast.WalkSkipChildren, nil
		case gmast.KindCodeSpan:
			if r, ok := spanRange(n); ok {
				ranges = append(ranges, r)
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return ranges
}

// spanRange covers the text segments of a code span.
func spanRange(n gmast.Node) (Range, bool) {
	r := Range{Start: -1}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*gmast.Text)
		if !ok {
			continue
		}
		if r.Start < 0 {
			r.Start = t.Segment.Start
		}
		r.Stop = t.Segment.Stop
	}
	return r, r.Start >= 0
}
