// Package templates loads the site templates and renders pages, tag pages
// and the RSS feed.
//
// base.html and every file under partials/ are layouts shared by all page
// templates. Every other .html file is a page template executed by its path
// relative to the templates directory. A page template usually starts with
// {{template "base.html" .}} and overrides the blocks it needs.
package templates

import (
	"bytes"
	"encoding/xml"
	htmltemplate "html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	texttemplate "text/template"
	"time"

	"git.home.luguber.info/inful/marksite/internal/docmodel"
	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
)

const (
	// DefaultPage is used when a document names no template or an unknown one.
	DefaultPage = "single.html"
	// SectionPage is preferred for section documents when present.
	SectionPage = "list.html"
	// TagPage renders one page per tag.
	TagPage = "tags.html"
	// FeedName is the RSS template, executed with text/template.
	FeedName = "feed.rss"
	baseName = "base.html"
)

// Engine holds the parsed templates of one templates directory.
type Engine struct {
	dir   string
	pages map[string]*htmltemplate.Template
	feed  *texttemplate.Template
}

// Load parses every template in dir. DefaultPage must exist.
func Load(dir string) (*Engine, error) {
	files, err := listFiles(dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryTemplate, "failed to read templates directory").
			Fatal().
			WithContext("path", dir).
			Build()
	}

	layouts := htmltemplate.New(baseName)
	var pageFiles []string
	for _, rel := range files {
		switch {
		case rel == FeedName || !strings.HasSuffix(rel, ".html"):
			continue
		case rel == baseName || strings.HasPrefix(rel, "partials/"):
			if err := parseInto(layouts, dir, rel); err != nil {
				return nil, err
			}
		default:
			pageFiles = append(pageFiles, rel)
		}
	}

	e := &Engine{dir: dir, pages: make(map[string]*htmltemplate.Template, len(pageFiles))}
	for _, rel := range pageFiles {
		set, err := layouts.Clone()
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryTemplate, "failed to clone layouts").Fatal().Build()
		}
		if err := parseInto(set, dir, rel); err != nil {
			return nil, err
		}
		e.pages[rel] = set
	}
	if _, ok := e.pages[DefaultPage]; !ok {
		return nil, errors.TemplateError("default page template is missing").
			WithContext("path", filepath.Join(dir, DefaultPage)).
			Build()
	}

	if feed, err := os.ReadFile(filepath.Join(dir, FeedName)); err == nil {
		t, err := texttemplate.New(FeedName).Funcs(feedFuncs).Option("missingkey=error").Parse(string(feed))
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryTemplate, "failed to parse template").
				Fatal().
				WithContext("template", FeedName).
				Build()
		}
		e.feed = t
	}
	return e, nil
}

func parseInto(set *htmltemplate.Template, dir, rel string) error {
	content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		return errors.WrapError(err, errors.CategoryTemplate, "failed to read template").
			Fatal().
			WithContext("template", rel).
			Build()
	}
	t := set
	if rel != set.Name() {
		t = set.New(rel)
	}
	if _, err := t.Parse(string(content)); err != nil {
		return errors.WrapError(err, errors.CategoryTemplate, "failed to parse template").
			Fatal().
			WithContext("template", rel).
			Build()
	}
	return nil
}

func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(files)
	return files, err
}

// Has reports whether a page template named name was loaded.
func (e *Engine) Has(name string) bool {
	_, ok := e.pages[name]
	return ok
}

// HasFeed reports whether feed.rss was loaded.
func (e *Engine) HasFeed() bool { return e.feed != nil }

// Names returns the loaded page template names in lexical order.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.pages))
	for n := range e.pages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PageTemplate picks the template for doc: the frontmatter template when it
// exists, then list.html for section documents, then single.html.
func (e *Engine) PageTemplate(doc *docmodel.Document) string {
	if doc.Template != "" {
		name := doc.Template
		if !strings.HasSuffix(name, ".html") {
			name += ".html"
		}
		if e.Has(name) {
			return name
		}
	}
	if doc.IsSection && e.Has(SectionPage) {
		return SectionPage
	}
	return DefaultPage
}

// Render executes the page template name, falling back to DefaultPage when
// name is unknown.
func (e *Engine) Render(name string, ctx PageContext) ([]byte, error) {
	set, ok := e.pages[name]
	if !ok {
		name = DefaultPage
		set = e.pages[DefaultPage]
	}
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, name, ctx); err != nil {
		return nil, errors.WrapError(err, errors.CategoryTemplate, "failed to render template").
			Fatal().
			WithContext("template", name).
			WithContext("page", ctx.Page.URL).
			Build()
	}
	return buf.Bytes(), nil
}

// RenderFeed executes feed.rss.
func (e *Engine) RenderFeed(ctx FeedContext) ([]byte, error) {
	if e.feed == nil {
		return nil, errors.TemplateError("feed template is missing").WithContext("template", FeedName).Build()
	}
	var buf bytes.Buffer
	if err := e.feed.Execute(&buf, ctx); err != nil {
		return nil, errors.WrapError(err, errors.CategoryTemplate, "failed to render template").
			Fatal().
			WithContext("template", FeedName).
			Build()
	}
	return buf.Bytes(), nil
}

var feedFuncs = texttemplate.FuncMap{
	"xml": func(s string) (string, error) {
		var b strings.Builder
		if err := xml.EscapeText(&b, []byte(s)); err != nil {
			return "", err
		}
		return b.String(), nil
	},
	"rfc1123": func(t time.Time) string {
		return t.Format(time.RFC1123Z)
	},
}
