package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/marksite/internal/docmodel"
	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
)

func writeTemplates(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

var basic = map[string]string{
	"base.html":            `<title>{{block "title" .}}{{.Page.Title}}{{end}}</title>{{block "content" .}}{{.Page.Content}}{{end}}{{template "partials/footer.html" .}}`,
	"partials/footer.html": `<footer>{{.Site.Title}}</footer>`,
	"single.html":          `{{template "base.html" .}}`,
	"list.html":            `{{template "base.html" .}}{{define "content"}}<ul>{{range .Section.Pages}}<li>{{.Title}}</li>{{end}}</ul>{{end}}`,
	"essay.html":           `{{template "base.html" .}}{{define "title"}}Essay: {{.Page.Title}}{{end}}`,
	"tags.html":            `{{template "base.html" .}}{{define "content"}}{{.Tag.Name}}={{len .Tag.Members}}{{end}}`,
	"feed.rss":             `<rss>{{range .Pages}}<item><title>{{xml .Title}}</title><pubDate>{{rfc1123 .Created}}</pubDate></item>{{end}}</rss>`,
}

func TestLoadAndRender(t *testing.T) {
	e, err := Load(writeTemplates(t, basic))
	require.NoError(t, err)
	assert.Equal(t, []string{"essay.html", "list.html", "single.html", "tags.html"}, e.Names())
	assert.True(t, e.HasFeed())

	ctx := PageContext{
		Site:    Site{Title: "Site"},
		Page:    Page{Title: "Hello", Content: "<p>body</p>"},
		Section: Section{Pages: []Page{{Title: "one"}, {Title: "two"}}},
	}

	out, err := e.Render("single.html", ctx)
	require.NoError(t, err)
	assert.Equal(t, "<title>Hello</title><p>body</p><footer>Site</footer>", string(out))

	out, err = e.Render("list.html", ctx)
	require.NoError(t, err)
	assert.Equal(t, "<title>Hello</title><ul><li>one</li><li>two</li></ul><footer>Site</footer>", string(out))

	out, err = e.Render("essay.html", ctx)
	require.NoError(t, err)
	assert.Equal(t, "<title>Essay: Hello</title><p>body</p><footer>Site</footer>", string(out))

	out, err = e.Render("missing.html", ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "<title>Hello</title><p>body</p>"))

	out, err = e.Render(TagPage, PageContext{Tag: TagEntry{Name: "go", Members: make([]docmodel.LinkRecord, 2)}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "go=2")
}

func TestRender_EscapesText(t *testing.T) {
	e, err := Load(writeTemplates(t, basic))
	require.NoError(t, err)
	out, err := e.Render("single.html", PageContext{Page: Page{Title: "<b>"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<title>&lt;b&gt;</title>")
}

func TestPageTemplate(t *testing.T) {
	e, err := Load(writeTemplates(t, basic))
	require.NoError(t, err)

	tests := []struct {
		name string
		doc  docmodel.Document
		want string
	}{
		{"default", docmodel.Document{}, "single.html"},
		{"frontmatter", docmodel.Document{Template: "essay"}, "essay.html"},
		{"frontmatter with extension", docmodel.Document{Template: "essay.html"}, "essay.html"},
		{"unknown falls back", docmodel.Document{Template: "nope"}, "single.html"},
		{"section", docmodel.Document{IsSection: true}, "list.html"},
		{"section with template", docmodel.Document{IsSection: true, Template: "essay"}, "essay.html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.PageTemplate(&tt.doc))
		})
	}
}

func TestPageTemplate_SectionWithoutList(t *testing.T) {
	e, err := Load(writeTemplates(t, map[string]string{"single.html": "x"}))
	require.NoError(t, err)
	assert.Equal(t, "single.html", e.PageTemplate(&docmodel.Document{IsSection: true}))
	assert.False(t, e.HasFeed())
	_, err = e.RenderFeed(FeedContext{})
	require.Error(t, err)
}

func TestRenderFeed(t *testing.T) {
	e, err := Load(writeTemplates(t, basic))
	require.NoError(t, err)
	created := time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC)
	out, err := e.RenderFeed(FeedContext{Pages: []Page{{Title: "Fish & Chips", Created: created}}})
	require.NoError(t, err)
	assert.Equal(t, "<rss><item><title>Fish &amp; Chips</title><pubDate>Fri, 01 Mar 2024 17:00:00 +0000</pubDate></item></rss>", string(out))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"no default", map[string]string{"list.html": "x"}},
		{"parse error", map[string]string{"single.html": "{{ .Page.Title "}},
		{"feed parse error", map[string]string{"single.html": "x", "feed.rss": "{{ range }}"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTemplates(t, tt.files))
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryTemplate))
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryTemplate))
}

func TestRender_ExecutionErrorIsTemplateError(t *testing.T) {
	e, err := Load(writeTemplates(t, map[string]string{"single.html": `{{template "nope" .}}`}))
	if err != nil {
		assert.True(t, errors.HasCategory(err, errors.CategoryTemplate))
		return
	}
	_, err = e.Render("single.html", PageContext{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryTemplate))
}

func TestNewPage(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)
	doc := &docmodel.Document{
		Title:     "T",
		HTML:      "<p>x</p>",
		URL:       "https://e.com/t.html",
		Tags:      []string{"a"},
		Created:   docmodel.Timestamp{Time: created, Valid: true},
		IsSection: true,
	}
	p := NewPage(doc)
	assert.Equal(t, "2024-01-02 03:04", p.DateCreated)
	assert.Equal(t, "", p.DateUpdated)
	assert.Equal(t, "<p>x</p>", string(p.Content))
	assert.True(t, p.IsSection)
}
