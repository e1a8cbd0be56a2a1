// Package markdown parses markdown with goldmark and exposes the result as a
// lazily produced stream of events that transforms can rewrite before the
// stream is serialized back to HTML.
package markdown

import (
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// newMarkdown returns the goldmark instance used for parsing. Heading
// attributes are enabled so `## Title {#id}` carries an explicit id.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
			extension.Footnote,
		),
		goldmark.WithParserOptions(parser.WithAttribute()),
	)
}

// ParseBody parses a markdown body (frontmatter already removed) into a goldmark AST.
func ParseBody(body []byte) gmast.Node {
	return newMarkdown().Parser().Parse(text.NewReader(body))
}
