// Package index holds the cross-document tables of a build cycle.
//
// A Builder is mutated while documents are scanned. Freeze converts it into
// an Index which only answers queries; the render pass receives the Index and
// therefore cannot change the tables it reads from.
package index

import (
	"slices"

	"git.home.luguber.info/inful/marksite/internal/docmodel"
)

// tables is the shared storage behind Builder and Index.
type tables struct {
	internal  []docmodel.LinkRecord
	external  []docmodel.LinkRecord
	tagOrder  []string
	tags      map[string][]docmodel.LinkRecord
	flat      map[string][]string
	sitemap   []docmodel.LinkRecord
	documents int
}

// Builder accumulates links, tags and names during the scan pass.
type Builder struct {
	t      *tables
	frozen bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{t: &tables{
		tags: make(map[string][]docmodel.LinkRecord),
		flat: make(map[string][]string),
	}}
}

func (b *Builder) mustBeOpen() {
	if b.frozen {
		panic("index: builder mutated after Freeze")
	}
}

// AddLink stores a link record in the internal or external table.
func (b *Builder) AddLink(rec docmodel.LinkRecord) {
	b.mustBeOpen()
	if rec.Internal {
		b.t.internal = append(b.t.internal, rec)
		return
	}
	b.t.external = append(b.t.external, rec)
}

// AddTagMember appends rec to the member list of tag.
func (b *Builder) AddTagMember(tag string, rec docmodel.LinkRecord) {
	b.mustBeOpen()
	if _, ok := b.t.tags[tag]; !ok {
		b.t.tagOrder = append(b.t.tagOrder, tag)
	}
	rec.Kind = docmodel.KindTagMember
	b.t.tags[tag] = append(b.t.tags[tag], rec)
}

// AddSitemapEntry appends rec to the ordered sitemap.
func (b *Builder) AddSitemapEntry(rec docmodel.LinkRecord) {
	b.mustBeOpen()
	rec.Kind = docmodel.KindSitemap
	b.t.sitemap = append(b.t.sitemap, rec)
}

// RegisterPath makes the document at rel resolvable by its root relative
// name without extension and by its bare stem. A key registered before keeps
// its earlier candidates first.
func (b *Builder) RegisterPath(rel string) {
	b.mustBeOpen()
	key := docmodel.SiteKey(rel)
	b.t.documents++
	b.t.flat[key] = append(b.t.flat[key], key)
	if stem := docmodel.Stem(rel); stem != key {
		b.t.flat[stem] = append(b.t.flat[stem], key)
	}
}

// Resolve returns every candidate registered under name, first registered first.
func (b *Builder) Resolve(name string) []string {
	return slices.Clone(b.t.flat[name])
}

// Freeze ends the scan pass. The Builder must not be used afterwards.
func (b *Builder) Freeze() *Index {
	b.mustBeOpen()
	b.frozen = true
	return &Index{t: b.t}
}

// Index is the read-only view used during rendering.
type Index struct {
	t *tables
}

// Resolve returns every candidate registered under name.
func (ix *Index) Resolve(name string) []string {
	return slices.Clone(ix.t.flat[name])
}

// Documents returns how many paths were registered.
func (ix *Index) Documents() int { return ix.t.documents }

// InternalLinks returns the internal link table in registration order.
func (ix *Index) InternalLinks() []docmodel.LinkRecord { return slices.Clone(ix.t.internal) }

// ExternalLinks returns the external link table in registration order.
func (ix *Index) ExternalLinks() []docmodel.LinkRecord { return slices.Clone(ix.t.external) }

// Sitemap returns the sitemap entries in scan order.
func (ix *Index) Sitemap() []docmodel.LinkRecord { return slices.Clone(ix.t.sitemap) }

// TagNames returns every tag in first-seen order.
func (ix *Index) TagNames() []string { return slices.Clone(ix.t.tagOrder) }

// Tag returns the members of tag in scan order.
func (ix *Index) Tag(tag string) []docmodel.LinkRecord { return slices.Clone(ix.t.tags[tag]) }

// TagGroup is one row of the site tag table.
type TagGroup struct {
	Name    string
	Members []docmodel.LinkRecord
}

// Tags returns the whole tag table in first-seen order.
func (ix *Index) Tags() []TagGroup {
	out := make([]TagGroup, 0, len(ix.t.tagOrder))
	for _, name := range ix.t.tagOrder {
		out = append(out, TagGroup{Name: name, Members: ix.Tag(name)})
	}
	return out
}

// Backlinks returns one record per distinct origin linking to docURL. Links a
// document makes to itself and fragments on the target are ignored.
func (ix *Index) Backlinks(docURL string) []docmodel.LinkRecord {
	type origin struct{ url, title string }
	seen := make(map[origin]bool)
	var out []docmodel.LinkRecord
	for _, rec := range ix.t.internal {
		if rec.TargetURL() != docURL || rec.OriginURL == docURL || rec.OriginURL == "" {
			continue
		}
		key := origin{rec.OriginURL, rec.OriginTitle}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, docmodel.LinkRecord{
			URL:         rec.OriginURL,
			Internal:    true,
			Title:       rec.OriginTitle,
			OriginURL:   rec.OriginURL,
			OriginTitle: rec.OriginTitle,
			Kind:        docmodel.KindBacklink,
		})
	}
	return out
}

// Related returns the members of every tag in tags except docURL itself,
// each URL once, in tag then scan order.
func (ix *Index) Related(docURL string, tags []string) []docmodel.LinkRecord {
	seen := map[string]bool{docURL: true}
	var out []docmodel.LinkRecord
	for _, tag := range tags {
		for _, rec := range ix.t.tags[tag] {
			if seen[rec.URL] {
				continue
			}
			seen[rec.URL] = true
			rec.Kind = docmodel.KindRelated
			out = append(out, rec)
		}
	}
	return out
}

// Attachments returns the distinct output relative paths of every attachment
// referenced by a link or image, in first reference order.
func (ix *Index) Attachments() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range ix.t.internal {
		if !rec.Attachment || seen[rec.Path] {
			continue
		}
		seen[rec.Path] = true
		out = append(out, rec.Path)
	}
	return out
}
