package build

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/marksite/internal/config"
	"git.home.luguber.info/inful/marksite/internal/docmodel"
	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
	"git.home.luguber.info/inful/marksite/internal/report"
)

const testConfig = `url: https://example.com
title: Test Site
attachment_directory: files
tags_url: tags
`

var testTemplates = map[string]string{
	"single.html": `<h1>{{.Page.Title}}</h1>{{.Page.Content}}` +
		`<ul class="backlinks">{{range .Page.Backlinks}}<li>{{.OriginURL}}</li>{{end}}</ul>` +
		`<ul class="related">{{range .Page.Related}}<li>{{.URL}}</li>{{end}}</ul>`,
	"list.html": `<h1>{{.Page.Title}}</h1><ol>{{range .Section.Pages}}<li>{{.URL}}</li>{{end}}</ol>`,
	"tags.html": `<h1>{{.Tag.Name}}</h1>{{range .Tag.Members}}<li>{{.Title}}</li>{{end}}`,
	"feed.rss":  "{{range .Pages}}{{.URL}}\n{{end}}",
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func setMTime(t *testing.T, root, rel string, ts time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(filepath.Join(root, filepath.FromSlash(rel)), ts, ts))
}

// newSite writes a configured site with the test templates and the given
// source files, and returns its root.
func newSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "_marksite/config.yaml", testConfig)
	for name, content := range testTemplates {
		writeFile(t, root, "_marksite/templates/"+name, content)
	}
	writeFile(t, root, "_marksite/public/css/main.css", "body{}")
	for rel, content := range files {
		writeFile(t, root, rel, content)
	}
	return root
}

func newOrchestrator(t *testing.T, root string, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(root, opts...)
	require.NoError(t, err)
	return o
}

func outPath(root, rel string) string {
	return filepath.Join(root, config.ToolDirName, config.OutputDirName, filepath.FromSlash(rel))
}

func readOut(t *testing.T, root, rel string) string {
	t.Helper()
	b, err := os.ReadFile(outPath(root, rel))
	require.NoError(t, err)
	return string(b)
}

func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	require.NoError(t, filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		files[filepath.ToSlash(rel)] = string(b)
		return nil
	}))
	return files
}

func TestBuild_TagsWithoutDates(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md": "---\ntitle: A\ntags: a, b\n---\nbody\n",
	})
	o := newOrchestrator(t, root)

	rep, err := o.Build(t.Context())
	require.NoError(t, err)
	assert.Equal(t, report.OutcomeSuccess, rep.Outcome)
	assert.Zero(t, rep.Problems.Count())
	assert.Equal(t, 1, rep.Documents)
	assert.Equal(t, StateIdle, o.State())

	assert.Equal(t, "<h1>a</h1><li>A</li>", readOut(t, root, "tags/a.html"))
	assert.Equal(t, "<h1>b</h1><li>A</li>", readOut(t, root, "tags/b.html"))
}

func TestBuild_Backlinks(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md": "---\ntitle: A\n---\nSee [text](b.md).\n",
		"b.md": "---\ntitle: B\n---\nNo links here.\n",
	})
	o := newOrchestrator(t, root)

	_, err := o.Build(t.Context())
	require.NoError(t, err)

	b := readOut(t, root, "b.html")
	assert.Contains(t, b, `<ul class="backlinks"><li>https://example.com/a.html</li></ul>`)
	a := readOut(t, root, "a.html")
	assert.Contains(t, a, `<ul class="backlinks"></ul>`)
	assert.Contains(t, a, `<a href="https://example.com/b.html">text</a>`)
}

func TestBuild_SelfLinkIsNotABacklink(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md": "---\ntitle: A\n---\n[me](a.md) [top](#top)\n",
	})
	o := newOrchestrator(t, root)

	_, err := o.Build(t.Context())
	require.NoError(t, err)
	assert.Contains(t, readOut(t, root, "a.html"), `<ul class="backlinks"></ul>`)
}

func TestBuild_RelatedByTag(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md": "---\ntags: go\n---\n",
		"b.md": "---\ntags: go, web\n---\n",
		"c.md": "---\ntags: web\n---\n",
	})
	o := newOrchestrator(t, root)

	_, err := o.Build(t.Context())
	require.NoError(t, err)
	assert.Contains(t, readOut(t, root, "a.html"), `<ul class="related"><li>https://example.com/b.html</li></ul>`)
	assert.Contains(t, readOut(t, root, "b.html"),
		`<ul class="related"><li>https://example.com/a.html</li><li>https://example.com/c.html</li></ul>`)
}

func TestBuild_WikilinkToLaterDocument(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md":         "---\n---\nSee [[zeta page]].\n",
		"zeta page.md": "---\n---\nlast\n",
	})
	o := newOrchestrator(t, root)

	rep, err := o.Build(t.Context())
	require.NoError(t, err)
	assert.Empty(t, rep.Problems.Resolution)
	assert.Contains(t, readOut(t, root, "a.html"), `href="https://example.com/zeta-page.html"`)
}

func TestBuild_SectionListsSiblingsNewestFirst(t *testing.T) {
	root := newSite(t, map[string]string{
		"notes/_index.md": "---\ntitle: Notes\n---\n",
		"notes/old.md":    "---\n---\n",
		"notes/new.md":    "---\n---\n",
		"other.md":        "---\n---\n",
	})
	now := time.Now()
	setMTime(t, root, "notes/old.md", now.Add(-2*time.Hour))
	setMTime(t, root, "notes/new.md", now.Add(-time.Hour))
	o := newOrchestrator(t, root)

	_, err := o.Build(t.Context())
	require.NoError(t, err)
	assert.Equal(t,
		`<h1>Notes</h1><ol><li>https://example.com/notes/new.html</li><li>https://example.com/notes/old.html</li></ol>`,
		readOut(t, root, "notes/index.html"))
}

func TestBuild_FeedNewestFirst(t *testing.T) {
	root := newSite(t, map[string]string{
		"one.md": "---\ndate_created: 2021-01-01\n---\n",
		"two.md": "---\ndate_created: 2022-01-01\n---\n",
	})
	o := newOrchestrator(t, root)

	_, err := o.Build(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/two.html\nhttps://example.com/one.html\n", readOut(t, root, "feed.rss"))
}

func TestBuild_ValidationProblemsDoNotAbort(t *testing.T) {
	root := newSite(t, map[string]string{
		"good.md":    "---\ndate_created: not a date\n---\nok\n",
		"nofm.md":    "just text\n",
		"private.md": "---\npublish: false\n---\n",
	})
	o := newOrchestrator(t, root)

	rep, err := o.Build(t.Context())
	require.NoError(t, err)
	assert.Equal(t, report.OutcomeWarning, rep.Outcome)
	assert.Equal(t, 1, rep.Documents)
	assert.Equal(t, 2, rep.Excluded)

	kinds := map[docmodel.IssueKind]string{}
	for _, v := range rep.Problems.Validation {
		kinds[v.Kind] = v.Path
	}
	assert.Equal(t, "good.md", kinds[docmodel.IssueInvalidDateCreated])
	assert.Equal(t, "nofm.md", kinds[docmodel.IssueMissingFrontmatter])

	assert.FileExists(t, outPath(root, "good.html"))
	assert.NoFileExists(t, outPath(root, "nofm.html"))
	assert.NoFileExists(t, outPath(root, "private.html"))
}

func TestBuild_DuplicateOutputPath(t *testing.T) {
	root := newSite(t, map[string]string{
		"Foo Bar.md": "---\ntitle: First\n---\nfirst\n",
		"foo-bar.md": "---\ntitle: Second\n---\nsecond\n",
	})
	o := newOrchestrator(t, root)

	rep, err := o.Build(t.Context())
	require.NoError(t, err)
	assert.Equal(t, report.OutcomeWarning, rep.Outcome)
	assert.Equal(t, 1, rep.Documents)
	assert.Equal(t, 1, rep.Excluded)

	require.Len(t, rep.Problems.Validation, 1)
	v := rep.Problems.Validation[0]
	assert.Equal(t, docmodel.IssueDuplicateOutput, v.Kind)
	assert.Equal(t, "foo-bar.md", v.Path)
	assert.Contains(t, v.Detail, "Foo Bar.md")

	assert.Contains(t, readOut(t, root, "foo-bar.html"), "<h1>First</h1>")
}

func TestBuild_ReportsBrokenLinks(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md": "---\n---\n[gone](missing.md) [tool](/_marksite/x) [ext](https://go.dev)\n",
	})
	o := newOrchestrator(t, root)

	rep, err := o.Build(t.Context())
	require.NoError(t, err)
	require.Len(t, rep.Problems.BrokenLinks, 2)
	assert.Equal(t, "a.html", rep.Problems.BrokenLinks[0].Page)
	assert.Equal(t, "https://example.com/missing.html", rep.Problems.BrokenLinks[0].Href)
}

func TestBuild_AssetsAndAttachments(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md":                "---\n---\n[report](files/Report%20Q1.pdf) ![img](files/pic.png)\n",
		"files/Report Q1.pdf": "pdf",
		"files/pic.png":       "png",
		"files/unused.txt":    "unused",
	})
	o := newOrchestrator(t, root)

	rep, err := o.Build(t.Context())
	require.NoError(t, err)
	assert.Empty(t, rep.Problems.BrokenLinks)

	assert.Equal(t, "body{}", readOut(t, root, "public/css/main.css"))
	assert.FileExists(t, outPath(root, "public/css/syntax-theme-dark.css"))
	assert.FileExists(t, outPath(root, "public/css/syntax-theme-light.css"))
	assert.Equal(t, "pdf", readOut(t, root, "files/Report Q1.pdf"))
	assert.Equal(t, "png", readOut(t, root, "files/pic.png"))
	assert.NoFileExists(t, outPath(root, "files/unused.txt"))
}

func TestBuild_ZeroDocuments(t *testing.T) {
	root := newSite(t, nil)
	o := newOrchestrator(t, root)

	rep, err := o.Build(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Documents)
	assert.Equal(t, report.OutcomeSuccess, rep.Outcome)
	assert.FileExists(t, outPath(root, "public/css/syntax-theme-dark.css"))
}

func TestBuild_IsIdempotent(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md":        "---\ntags: x\n---\n# Title\n\n[b](b.md)\n\n```python\nx = 1\n```\n",
		"b.md":        "---\ntags: x\n---\n[[a]]\n",
		"d/_index.md": "---\n---\n",
		"d/c.md":      "---\n---\n",
	})
	o := newOrchestrator(t, root)

	_, err := o.Build(t.Context())
	require.NoError(t, err)
	first := snapshot(t, outPath(root, ""))

	_, err = o.Build(t.Context())
	require.NoError(t, err)
	assert.Equal(t, first, snapshot(t, outPath(root, "")))

	_, err = o.RebuildMarkdown(t.Context())
	require.NoError(t, err)
	assert.Equal(t, first, snapshot(t, outPath(root, "")))
}

func TestBuild_FailureKeepsPreviousOutput(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md": "---\n---\nfirst\n",
	})
	o := newOrchestrator(t, root)
	_, err := o.Build(t.Context())
	require.NoError(t, err)
	before := snapshot(t, outPath(root, ""))

	writeFile(t, root, "a.md", "---\n---\nsecond\n")
	writeFile(t, root, "bad.md", "---\n---\n```c++\nint x;\n```\n")

	rep, err := o.Build(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryHighlight))
	assert.Equal(t, report.OutcomeFailed, rep.Outcome)
	assert.Equal(t, StateFailed, o.State())
	assert.Same(t, rep, o.LastReport())

	assert.Equal(t, before, snapshot(t, outPath(root, "")))
	assert.NoDirExists(t, outPath(root, "")+"_stage")

	require.NoError(t, os.Remove(filepath.Join(root, "bad.md")))
	_, err = o.Build(t.Context())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, o.State())
	assert.Contains(t, readOut(t, root, "a.html"), "second")
}

func TestRebuildMarkdown_LeavesAssetsAlone(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md": "---\n---\nfirst\n",
		"b.md": "---\n---\nbee\n",
	})
	o := newOrchestrator(t, root)
	_, err := o.Build(t.Context())
	require.NoError(t, err)

	marker := outPath(root, "public/marker.txt")
	require.NoError(t, os.WriteFile(marker, []byte("asset"), 0o644))
	writeFile(t, root, "_marksite/public/css/main.css", "changed{}")
	writeFile(t, root, "a.md", "---\n---\nsecond\n")
	require.NoError(t, os.Remove(filepath.Join(root, "b.md")))

	rep, err := o.RebuildMarkdown(t.Context())
	require.NoError(t, err)
	assert.Equal(t, report.KindMarkdown, rep.Kind)
	assert.Equal(t, 1, rep.Pruned)

	assert.Contains(t, readOut(t, root, "a.html"), "second")
	assert.NoFileExists(t, outPath(root, "b.html"))
	assert.Equal(t, "asset", readOut(t, root, "public/marker.txt"))
	assert.Equal(t, "body{}", readOut(t, root, "public/css/main.css"))
}

func TestReload_TemplateChangeRerendersEverything(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md":     "---\n---\nA\n",
		"sub/b.md": "---\n---\nB\n",
	})
	o := newOrchestrator(t, root)
	_, err := o.Build(t.Context())
	require.NoError(t, err)
	stray := outPath(root, "stray.html")
	require.NoError(t, os.WriteFile(stray, []byte("x"), 0o644))

	writeFile(t, root, "_marksite/templates/single.html", `v2:{{.Page.Title}}`)
	require.NoError(t, o.Reload())
	_, err = o.Build(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "v2:a", readOut(t, root, "a.html"))
	assert.Equal(t, "v2:b", readOut(t, root, "sub/b.html"))
	assert.NoFileExists(t, stray)
}

func TestReload_InvalidConfigKeepsPrevious(t *testing.T) {
	root := newSite(t, nil)
	o := newOrchestrator(t, root)

	writeFile(t, root, "_marksite/config.yaml", "url: not-a-url\n")
	err := o.Reload()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Equal(t, "https://example.com", o.Config().URL)
}

func TestCopyAssets(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md": "---\n---\nA\n",
	})
	o := newOrchestrator(t, root)
	_, err := o.Build(t.Context())
	require.NoError(t, err)
	page := readOut(t, root, "a.html")

	writeFile(t, root, "_marksite/public/js/new.js", "js")
	writeFile(t, root, "a.md", "---\n---\nchanged\n")

	rep, err := o.CopyAssets(t.Context())
	require.NoError(t, err)
	assert.Equal(t, report.KindAssets, rep.Kind)
	assert.Equal(t, "js", readOut(t, root, "public/js/new.js"))
	assert.FileExists(t, outPath(root, "public/css/syntax-theme-light.css"))
	assert.Equal(t, page, readOut(t, root, "a.html"))
}

type fakeRecorder struct {
	mu       sync.Mutex
	stages   []string
	outcomes []string
	rendered int
}

func (f *fakeRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages = append(f.stages, stage)
}
func (f *fakeRecorder) ObserveBuildDuration(string, time.Duration) {}
func (f *fakeRecorder) IncBuildOutcome(kind, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, kind+"/"+outcome)
}
func (f *fakeRecorder) AddDocumentsRendered(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rendered += n
}
func (f *fakeRecorder) IncRebuildRequest(string) {}
func (f *fakeRecorder) SetBuildInProgress(bool)  {}

func TestBuild_RecordsMetrics(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md": "---\n---\nA\n",
		"b.md": "---\n---\nB\n",
	})
	rec := &fakeRecorder{}
	o := newOrchestrator(t, root, WithRecorder(rec))
	o.newID = func() string { return "build-1" }

	rep, err := o.Build(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "build-1", rep.ID)
	assert.Equal(t, []string{"scan", "render", "commit"}, rec.stages)
	assert.Equal(t, []string{"full/success"}, rec.outcomes)
	assert.Equal(t, 2, rec.rendered)
	for _, stage := range []report.StageName{report.StageScan, report.StageRender, report.StageCommit} {
		assert.Contains(t, rep.StageDurations, stage)
	}
}

func TestBuild_IgnoredDirectoriesAndToolDir(t *testing.T) {
	root := newSite(t, map[string]string{
		"a.md":         "---\n---\n",
		"private/x.md": "---\n---\n",
		"draft.wip.md": "---\n---\n",
	})
	writeFile(t, root, "_marksite/config.yaml", testConfig+"ignored_directories: [private]\nignore_patterns: [\"*.wip.md\"]\n")
	o := newOrchestrator(t, root)

	rep, err := o.Build(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Documents)
	assert.NoFileExists(t, outPath(root, "private/x.html"))
	assert.False(t, strings.Contains(readOut(t, root, "feed.rss"), "draft"))
}
