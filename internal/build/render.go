package build

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/marksite/internal/docmodel"
	"git.home.luguber.info/inful/marksite/internal/linkverify"
	"git.home.luguber.info/inful/marksite/internal/report"
	"git.home.luguber.info/inful/marksite/internal/slug"
	"git.home.luguber.info/inful/marksite/internal/templates"
)

// generated is one rendered output file.
type generated struct {
	rel  string // output relative, slash separated
	data []byte
	html bool
}

// render runs the rendering phase over a frozen index. Nothing is written;
// the caller decides where the files go.
func (o *Orchestrator) render(s *site, rep *report.BuildReport) ([]generated, error) {
	o.setState(StateRendering)
	start := time.Now()
	defer o.observeStage(rep, report.StageRender, start)

	ix := s.index
	base := templates.PageContext{
		Site: templates.Site{
			Title:       o.cfg.Title,
			Description: o.cfg.Description,
			URL:         o.cfg.URL,
		},
		Tags:    o.tagEntries(s),
		Sitemap: ix.Sitemap(),
		BaseURL: o.cfg.URL,
	}

	files := make([]generated, 0, len(s.docs)+len(base.Tags)+1)
	for _, doc := range s.docs {
		doc.Backlinks = ix.Backlinks(doc.URL)
		doc.Related = ix.Related(doc.URL, doc.Tags)
	}
	for _, doc := range s.docs {
		ctx := base
		ctx.Page = templates.NewPage(doc)
		if doc.IsSection {
			ctx.Section = templates.Section{Pages: siblings(s.dirs[doc.Dir()], doc)}
		}
		data, err := o.engine.Render(o.engine.PageTemplate(doc), ctx)
		if err != nil {
			return nil, err
		}
		files = append(files, generated{rel: doc.OutputRel, data: data, html: true})
	}
	rep.Rendered = len(s.docs)

	if o.cfg.TagsURL != "" && o.engine.Has(templates.TagPage) {
		for _, tag := range base.Tags {
			ctx := base
			ctx.Tag = tag
			ctx.Page = templates.Page{Title: tag.Name, URL: tag.URL}
			data, err := o.engine.Render(templates.TagPage, ctx)
			if err != nil {
				return nil, err
			}
			files = append(files, generated{rel: tagPagePath(o.cfg.TagsURL, tag.Name), data: data, html: true})
		}
	}

	if o.engine.HasFeed() {
		pages := make([]templates.Page, 0, len(s.docs))
		for _, doc := range newestFirst(s.docs) {
			pages = append(pages, templates.NewPage(doc))
		}
		data, err := o.engine.RenderFeed(templates.FeedContext{Site: base.Site, Pages: pages})
		if err != nil {
			return nil, err
		}
		files = append(files, generated{rel: templates.FeedName, data: data})
	}

	if err := o.verifyLinks(files, rep); err != nil {
		return nil, err
	}
	return files, nil
}

// tagEntries builds the site tag table. Tag URLs are only set when tag pages
// are generated.
func (o *Orchestrator) tagEntries(s *site) []templates.TagEntry {
	withPages := o.cfg.TagsURL != "" && o.engine.Has(templates.TagPage)
	var entries []templates.TagEntry
	for _, g := range s.index.Tags() {
		if g.Name == "" {
			continue
		}
		e := templates.TagEntry{Name: g.Name, Members: g.Members}
		if withPages {
			e.URL = docmodel.JoinURL(o.cfg.URL, tagPagePath(o.cfg.TagsURL, g.Name))
		}
		entries = append(entries, e)
	}
	return entries
}

func tagPagePath(tagsURL, tag string) string {
	return path.Join(tagsURL, slug.Make(tag)+".html")
}

// siblings returns the pages listed by a section document: every other
// document of its directory, newest first.
func siblings(dir []*docmodel.Document, section *docmodel.Document) []templates.Page {
	var docs []*docmodel.Document
	for _, d := range dir {
		if d != section && !d.IsSection {
			docs = append(docs, d)
		}
	}
	pages := make([]templates.Page, 0, len(docs))
	for _, d := range newestFirst(docs) {
		pages = append(pages, templates.NewPage(d))
	}
	return pages
}

func newestFirst(docs []*docmodel.Document) []*docmodel.Document {
	out := append([]*docmodel.Document(nil), docs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Created.Time.After(out[j].Created.Time)
	})
	return out
}

// verifyLinks reports links into the site that match neither a generated
// file nor a copied asset.
func (o *Orchestrator) verifyLinks(files []generated, rep *report.BuildReport) error {
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f.rel] = true
	}
	v, err := linkverify.NewVerifier(o.cfg.URL, func(rel string) bool {
		return known[rel] || o.assetExists(rel)
	})
	if err != nil {
		return err
	}
	for _, f := range files {
		if !f.html {
			continue
		}
		broken, err := v.Broken(f.data)
		if err != nil {
			return err
		}
		for _, l := range broken {
			rep.Problems.AddBrokenLink(f.rel, l.URL)
		}
	}
	return nil
}

// assetExists reports whether an output relative path is produced by the
// asset copy.
func (o *Orchestrator) assetExists(rel string) bool {
	if rest, ok := strings.CutPrefix(rel, publicDirName+"/"); ok {
		for _, name := range themeCSSFiles {
			if rest == name {
				return true
			}
		}
		return fileExists(filepath.Join(o.layout.PublicDir, filepath.FromSlash(rest)))
	}
	if dir := o.cfg.AttachmentDirectory; dir != "" && strings.HasPrefix(rel, dir+"/") {
		return fileExists(filepath.Join(o.layout.Root, filepath.FromSlash(rel)))
	}
	return false
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
