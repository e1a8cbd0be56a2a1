// Package docmodel defines the in-memory representation of one markdown
// source file and the link records that connect documents to each other.
package docmodel

import (
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/marksite/internal/frontmatter"
	"git.home.luguber.info/inful/marksite/internal/slug"
)

// SectionStem is the reserved file stem that marks a section document.
const SectionStem = "_index"

// Source is a markdown file as read from disk.
type Source struct {
	Path    string // absolute path
	RelPath string // slash separated, relative to the site root
	Content []byte
	ModTime time.Time
}

// Document is one markdown source file and everything derived from it during
// a build cycle. Identity fields are computed once by New and never change.
type Document struct {
	SourcePath string
	RelPath    string
	OutputRel  string
	URL        string

	Raw  []byte
	HTML string

	Title     string
	Summary   string
	Tags      []string
	Publish   bool
	InSitemap bool
	Template  string
	Created   Timestamp
	Updated   Timestamp
	IsSection bool

	// Populated by the pipeline.
	TOC []LinkRecord
	// Populated by the render pass.
	Backlinks []LinkRecord
	Related   []LinkRecord
}

// New builds a Document from a source file. A nil Document means the file is
// excluded from the build; the returned issues say why. Issues returned with a
// non-nil Document are recoverable (for example an unparseable date that fell
// back to the file modification time).
func New(src Source, baseURL string) (*Document, []Issue) {
	fmRaw, body, had, err := frontmatter.Split(src.Content)
	switch {
	case err != nil:
		return nil, []Issue{{Kind: IssueInvalidFrontmatter, Detail: err.Error()}}
	case !had:
		return nil, []Issue{{Kind: IssueMissingFrontmatter, Detail: "file does not start with ---"}}
	}

	rel := path.Clean(strings.TrimPrefix(src.RelPath, "./"))
	stem := Stem(rel)
	outRel := OutputPath(rel)
	doc := &Document{
		SourcePath: src.Path,
		RelPath:    rel,
		OutputRel:  outRel,
		URL:        JoinURL(baseURL, outRel),
		Raw:        body,
		Title:      stem,
		Publish:    true,
		InSitemap:  true,
		IsSection:  stem == SectionStem,
		Created:    Timestamp{Time: src.ModTime, Source: SourceFilesystem, Valid: true},
		Updated:    Timestamp{Time: src.ModTime, Source: SourceFilesystem, Valid: true},
	}

	fields := frontmatter.Parse(fmRaw)
	var issues []Issue
	if fields.Title != "" {
		doc.Title = fields.Title
	}
	doc.Summary = fields.Summary
	doc.Template = fields.Template
	doc.Tags = fields.Tags
	if fields.Publish != nil {
		doc.Publish = *fields.Publish
	}
	if fields.InSitemap != nil {
		doc.InSitemap = *fields.InSitemap
	}
	if fields.DateCreated != "" {
		ts, ok := ParseTimestamp(fields.DateCreated, src.ModTime)
		doc.Created = ts
		if !ok {
			issues = append(issues, Issue{Kind: IssueInvalidDateCreated, Detail: fields.DateCreated})
		}
	}
	if fields.DateUpdated != "" {
		ts, ok := ParseTimestamp(fields.DateUpdated, src.ModTime)
		doc.Updated = ts
		if !ok {
			issues = append(issues, Issue{Kind: IssueInvalidDateUpdated, Detail: fields.DateUpdated})
		}
	}
	return doc, issues
}

// Stem returns the file name of rel without its extension.
func Stem(rel string) string {
	base := path.Base(rel)
	return strings.TrimSuffix(base, path.Ext(base))
}

// SiteKey returns rel without its extension: the root relative name wiki
// references resolve against.
func SiteKey(rel string) string {
	return strings.TrimSuffix(rel, path.Ext(rel))
}

// OutputPath maps a source relative path to its output relative path: every
// segment slugified and the extension replaced by .html.
func OutputPath(rel string) string {
	return slug.Path(rel) + ".html"
}

// JoinURL prefixes an output relative path with the site base URL.
func JoinURL(baseURL, rel string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(rel, "/")
}

// Dir returns the output directory the document is grouped under.
func (d *Document) Dir() string {
	return path.Dir(d.OutputRel)
}

// Stem returns the source file stem.
func (d *Document) Stem() string {
	return Stem(d.RelPath)
}

// Listed reports whether the document appears in the sitemap and tag tables.
func (d *Document) Listed() bool {
	return d.Publish && d.InSitemap
}

// TagRecord returns the record the document contributes to each of its tags.
func (d *Document) TagRecord() LinkRecord {
	return LinkRecord{URL: d.URL, Path: d.OutputRel, Internal: true, Title: d.Title, Kind: KindTagMember, Created: d.Created.Time}
}

// SitemapRecord returns the record the document contributes to the sitemap.
func (d *Document) SitemapRecord() LinkRecord {
	return LinkRecord{URL: d.URL, Path: d.OutputRel, Internal: true, Title: d.Title, Kind: KindSitemap, Created: d.Created.Time}
}
