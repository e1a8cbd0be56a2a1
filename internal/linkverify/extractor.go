// Package linkverify finds internal links in rendered pages that point at
// files the build did not generate.
package linkverify

import (
	stderrors "errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
)

// Link is an href or src found in a page.
type Link struct {
	URL       string
	Text      string // anchor text or image alt
	Tag       string // a or img
	Attribute string // href or src
}

// ExtractLinksFromReader tokenizes HTML from r and returns its anchor and
// image links. An anchor is recorded at its end tag, once its text is known.
func ExtractLinksFromReader(r io.Reader) ([]Link, error) {
	z := html.NewTokenizer(r)
	var (
		links []Link
		open  *Link // anchor whose text is being collected
		text  strings.Builder
	)
	closeAnchor := func() {
		if open != nil {
			open.Text = text.String()
			links = append(links, *open)
			open = nil
			text.Reset()
		}
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !stderrors.Is(err, io.EOF) {
				return nil, errors.WrapError(err, errors.CategoryValidation, "failed to tokenize HTML").
					WithSeverity(errors.SeverityError).
					Build()
			}
			closeAnchor()
			return links, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.A:
				closeAnchor()
				if href := attr(tok, "href"); href != "" {
					open = &Link{URL: href, Tag: "a", Attribute: "href"}
				}
			case atom.Img:
				if src := attr(tok, "src"); src != "" {
					links = append(links, Link{URL: src, Text: attr(tok, "alt"), Tag: "img", Attribute: "src"})
				}
			}

		case html.EndTagToken:
			if tok := z.Token(); tok.DataAtom == atom.A {
				closeAnchor()
			}

		case html.TextToken:
			if open != nil {
				text.WriteString(strings.TrimSpace(string(z.Text())))
			}
		}
	}
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
