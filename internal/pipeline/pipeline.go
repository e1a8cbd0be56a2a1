// Package pipeline turns a document body into HTML. The markdown event stream
// flows through a chain of small transforms that rewrite links and images,
// assign heading ids, collect the table of contents and highlight code.
// Link records are reported to the site index as they are seen.
package pipeline

import (
	"git.home.luguber.info/inful/marksite/internal/docmodel"
	"git.home.luguber.info/inful/marksite/internal/highlight"
	"git.home.luguber.info/inful/marksite/internal/markdown"
)

// Transform rewrites an upstream event stream into a downstream one.
type Transform interface {
	Apply(upstream markdown.Stream) markdown.Stream
}

// Chain composes transforms left to right.
type Chain []Transform

// Apply runs upstream through every transform of the chain.
func (c Chain) Apply(upstream markdown.Stream) markdown.Stream {
	s := upstream
	for _, t := range c {
		s = t.Apply(s)
	}
	return s
}

// LinkSink receives every link record produced while transforming a document.
type LinkSink interface {
	AddLink(rec docmodel.LinkRecord)
}

// Resolver looks up wiki references in the flat sitemap. It returns every
// candidate relative path (without extension) in registration order.
type Resolver interface {
	Resolve(name string) []string
}

// Options configures a pipeline run.
type Options struct {
	BaseURL     string
	Links       LinkSink
	Resolver    Resolver
	Unresolved  UnresolvedPolicy
	Highlighter *highlight.Highlighter
}

// Result is the output of Run.
type Result struct {
	HTML     string
	TOC      []docmodel.LinkRecord
	Warnings []Warning
}

// Run converts doc.Raw to HTML. It performs no file I/O. The first fatal
// error (a malformed code fence language) aborts the run.
func Run(doc *docmodel.Document, opts Options) (Result, error) {
	var res Result

	body, warnings := NormalizeWikilinks(doc.Raw, opts.Resolver, opts.Unresolved)
	res.Warnings = warnings

	hl := opts.Highlighter
	if hl == nil {
		hl = highlight.New()
	}
	sink := opts.Links
	if sink == nil {
		sink = discardLinks{}
	}

	ser := markdown.NewSerializer(body)
	headings := &HeadingTransform{DocURL: doc.URL, Serializer: ser}
	code := &HighlightTransform{Highlighter: hl}
	chain := Chain{
		&LinkTransform{BaseURL: opts.BaseURL, OriginURL: doc.URL, OriginTitle: doc.Title, Sink: sink},
		ImageTransform{BaseURL: opts.BaseURL, Sink: sink},
		code,
		headings,
	}

	html, err := ser.Render(chain.Apply(markdown.Tokenize(body)))
	if err != nil {
		return res, err
	}
	if code.Err != nil {
		return res, code.Err
	}
	if headings.Err != nil {
		return res, headings.Err
	}
	res.HTML = html
	res.TOC = headings.TOC
	return res, nil
}

type discardLinks struct{}

func (discardLinks) AddLink(docmodel.LinkRecord) {}
