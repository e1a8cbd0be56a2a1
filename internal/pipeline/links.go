package pipeline

import (
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/marksite/internal/docmodel"
	"git.home.luguber.info/inful/marksite/internal/markdown"
	"git.home.luguber.info/inful/marksite/internal/slug"
)

var externalPrefixes = []string{"http://", "https://", "www.", "mailto:"}

// IsExternal reports whether a link destination points outside the site.
// Besides the web and mail prefixes any destination with a URL scheme
// (tel:, ftp:, data:) counts as external.
func IsExternal(dest string) bool {
	lower := strings.ToLower(dest)
	for _, p := range externalPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	if i := strings.IndexByte(lower, ':'); i > 1 {
		scheme := lower[:i]
		if !strings.ContainsAny(scheme, "/.#? %") {
			return true
		}
	}
	return false
}

var markdownExts = map[string]bool{"": true, ".md": true, ".markdown": true}

// Rewrite maps a link destination to its rendered form. The boolean is false
// for destinations that are left alone and never recorded: empty ones and
// fragment-only references to the current page.
//
// Internal destinations are treated as site-root relative. Markdown targets
// are slugified segment by segment and get an .html extension; other files
// (attachments) keep their path. The base URL is prefixed and any #fragment
// re-attached.
func Rewrite(dest, baseURL string) (docmodel.LinkRecord, bool) {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return docmodel.LinkRecord{URL: dest}, false
	}
	if IsExternal(dest) {
		return docmodel.LinkRecord{URL: dest, Kind: docmodel.KindPlain}, true
	}

	target, fragment, _ := strings.Cut(dest, "#")
	target, _, _ = strings.Cut(target, "?")
	target = strings.TrimPrefix(path.Clean("/"+target), "/")

	rec := docmodel.LinkRecord{Internal: true, Kind: docmodel.KindPlain}
	if markdownExts[strings.ToLower(path.Ext(target))] {
		rec.Path = slug.Path(target) + ".html"
		rec.URL = docmodel.JoinURL(baseURL, rec.Path)
	} else {
		rec.Attachment = true
		rec.Path = unescapePath(target)
		rec.URL = docmodel.JoinURL(baseURL, target)
	}
	if fragment != "" {
		rec.URL += "#" + fragment
	}
	return rec, true
}

// LinkTransform rewrites link destinations and reports one record per link.
// The record's title is the first text event inside the link.
type LinkTransform struct {
	BaseURL     string
	OriginURL   string
	OriginTitle string
	Sink        LinkSink
}

func (t *LinkTransform) Apply(upstream markdown.Stream) markdown.Stream {
	return func(yield func(markdown.Event) bool) {
		var pending *docmodel.LinkRecord
		awaitingTitle := false
		for ev := range upstream {
			switch {
			case ev.Kind == markdown.EventStart && ev.Tag.Kind == markdown.TagLink:
				rec, ok := Rewrite(ev.Tag.Destination, t.BaseURL)
				ev.Tag.Destination = rec.URL
				if ok {
					rec.OriginURL = t.OriginURL
					rec.OriginTitle = t.OriginTitle
					pending = &rec
					awaitingTitle = true
				}
			case ev.Kind == markdown.EventText && awaitingTitle:
				pending.Title = ev.Text
				awaitingTitle = false
			case ev.Kind == markdown.EventEnd && ev.Tag.Kind == markdown.TagLink && pending != nil:
				t.Sink.AddLink(*pending)
				pending = nil
				awaitingTitle = false
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// ImageTransform prefixes internal image sources with the base URL. Image
// paths are not slugified. Internal images are reported as attachments.
type ImageTransform struct {
	BaseURL string
	Sink    LinkSink
}

func (t ImageTransform) Apply(upstream markdown.Stream) markdown.Stream {
	return func(yield func(markdown.Event) bool) {
		for ev := range upstream {
			if ev.Kind == markdown.EventStart && ev.Tag.Kind == markdown.TagImage && ev.Tag.Destination != "" && !IsExternal(ev.Tag.Destination) {
				p := strings.TrimPrefix(path.Clean("/"+ev.Tag.Destination), "/")
				ev.Tag.Destination = docmodel.JoinURL(t.BaseURL, p)
				if t.Sink != nil {
					t.Sink.AddLink(docmodel.LinkRecord{
						URL:        ev.Tag.Destination,
						Internal:   true,
						Path:       unescapePath(p),
						Attachment: true,
						Title:      ev.Tag.Title,
						Kind:       docmodel.KindPlain,
					})
				}
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// unescapePath decodes percent escapes so attachment paths match file names.
func unescapePath(p string) string {
	if decoded, err := url.PathUnescape(p); err == nil {
		return decoded
	}
	return p
}
