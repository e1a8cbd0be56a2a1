package docmodel

import (
	"strconv"
	"strings"
	"time"
)

// LinkKind tells what a LinkRecord describes.
type LinkKind string

const (
	KindPlain     LinkKind = "plain"
	KindTOC       LinkKind = "toc"
	KindBacklink  LinkKind = "backlink"
	KindRelated   LinkKind = "related"
	KindTagMember LinkKind = "tag_member"
	KindSitemap   LinkKind = "sitemap"
)

// LinkRecord is a value describing one link: a rewritten markdown link, a
// table of contents entry, or a synthetic record produced by the site index.
// Records are copied freely; nothing holds a pointer to one.
type LinkRecord struct {
	URL      string
	Internal bool
	// Path is the output relative target of an internal record, without
	// fragment or base URL.
	Path       string
	Attachment bool
	Title      string

	// Empty for synthetic records.
	OriginURL   string
	OriginTitle string

	Kind         LinkKind
	HeadingLevel int       // KindTOC
	Created      time.Time // KindTagMember, KindSitemap
}

// Key is the structural identity used for deduplication.
func (l LinkRecord) Key() string {
	var b strings.Builder
	b.WriteString(string(l.Kind))
	b.WriteByte('|')
	b.WriteString(l.URL)
	b.WriteByte('|')
	b.WriteString(l.OriginURL)
	if l.Kind == KindTOC {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(l.HeadingLevel))
	}
	return b.String()
}

// TargetURL returns URL without its fragment.
func (l LinkRecord) TargetURL() string {
	if i := strings.IndexByte(l.URL, '#'); i >= 0 {
		return l.URL[:i]
	}
	return l.URL
}

// CreatedString formats Created with DisplayLayout.
func (l LinkRecord) CreatedString() string {
	if l.Created.IsZero() {
		return ""
	}
	return l.Created.Format(DisplayLayout)
}
