package templates

import (
	"html/template"
	"time"

	"git.home.luguber.info/inful/marksite/internal/docmodel"
)

// Site is the site wide configuration visible to templates.
type Site struct {
	Title       string
	Description string
	URL         string
}

// Page is the template view of one document.
type Page struct {
	Title       string
	Content     template.HTML
	URL         string
	Summary     string
	DateCreated string
	DateUpdated string
	Created     time.Time
	Updated     time.Time
	Tags        []string
	TOC         []docmodel.LinkRecord
	Backlinks   []docmodel.LinkRecord
	Related     []docmodel.LinkRecord
	IsSection   bool
}

// NewPage builds the template view of doc. doc.HTML is trusted output of the
// markdown pipeline and is not escaped again.
func NewPage(doc *docmodel.Document) Page {
	return Page{
		Title:       doc.Title,
		Content:     template.HTML(doc.HTML), // #nosec G203 -- rendered by the markdown pipeline
		URL:         doc.URL,
		Summary:     doc.Summary,
		DateCreated: doc.Created.String(),
		DateUpdated: doc.Updated.String(),
		Created:     doc.Created.Time,
		Updated:     doc.Updated.Time,
		Tags:        doc.Tags,
		TOC:         doc.TOC,
		Backlinks:   doc.Backlinks,
		Related:     doc.Related,
		IsSection:   doc.IsSection,
	}
}

// Section lists the sibling pages of a section document.
type Section struct {
	Pages []Page
}

// TagEntry is one tag of the site tag table.
type TagEntry struct {
	Name    string
	URL     string // empty when tag pages are disabled
	Members []docmodel.LinkRecord
}

// PageContext is the data every HTML template is executed with. Section is
// only filled for section documents and Tag only for tag pages.
type PageContext struct {
	Site    Site
	Page    Page
	Section Section
	Tag     TagEntry
	Tags    []TagEntry
	Sitemap []docmodel.LinkRecord
	BaseURL string
}

// FeedContext is the data feed.rss is executed with.
type FeedContext struct {
	Site  Site
	Pages []Page
}
