package build

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/marksite/internal/docmodel"
	"git.home.luguber.info/inful/marksite/internal/docs"
	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
	"git.home.luguber.info/inful/marksite/internal/index"
	"git.home.luguber.info/inful/marksite/internal/logfields"
	"git.home.luguber.info/inful/marksite/internal/pipeline"
	"git.home.luguber.info/inful/marksite/internal/report"
)

// site is the result of the scanning phase.
type site struct {
	docs  []*docmodel.Document
	dirs  map[string][]*docmodel.Document // output directory -> documents in scan order
	index *index.Index
}

// scan discovers and loads every document, registers all of them in the
// index and only then runs the pipeline, so wiki references can point at
// documents found later in the walk.
func (o *Orchestrator) scan(ctx context.Context, rep *report.BuildReport, log *slog.Logger) (*site, error) {
	o.setState(StateScanning)
	start := time.Now()
	defer o.observeStage(rep, report.StageScan, start)

	discovery := docs.NewDiscovery(o.layout.Root, o.cfg.IgnoredDirectories, o.cfg.IgnorePatterns, o.layout.ToolDir)
	files, err := discovery.DiscoverDocs(ctx)
	if err != nil {
		return nil, err
	}

	b := index.NewBuilder()
	loaded := make([]*docmodel.Document, 0, len(files))
	taken := make(map[string]string) // output path -> source path
	for i := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := &files[i]
		if err := f.LoadContent(); err != nil {
			return nil, err
		}
		doc, issues := docmodel.New(f.Source(), o.cfg.URL)
		rep.Problems.AddIssues(f.RelativePath, issues)
		if doc == nil || !doc.Publish {
			rep.Excluded++
			log.Debug("Excluded document", logfields.Path(f.RelativePath), slog.Bool("invalid", doc == nil))
			continue
		}
		if first, ok := taken[doc.OutputRel]; ok {
			rep.Problems.AddIssues(f.RelativePath, []docmodel.Issue{{
				Kind:   docmodel.IssueDuplicateOutput,
				Detail: doc.OutputRel + " already written by " + first,
			}})
			rep.Excluded++
			log.Warn("Duplicate output path", logfields.Path(f.RelativePath), slog.String("output", doc.OutputRel), slog.String("first", first))
			continue
		}
		taken[doc.OutputRel] = f.RelativePath
		b.RegisterPath(doc.RelPath)
		if doc.Listed() {
			b.AddSitemapEntry(doc.SitemapRecord())
			for _, tag := range doc.Tags {
				b.AddTagMember(tag, doc.TagRecord())
			}
		}
		loaded = append(loaded, doc)
	}

	s := &site{docs: loaded, dirs: make(map[string][]*docmodel.Document)}
	opts := pipeline.Options{
		BaseURL:     o.cfg.URL,
		Links:       b,
		Resolver:    b,
		Unresolved:  pipeline.UnresolvedPolicy(o.cfg.Wikilinks.Unresolved),
		Highlighter: o.highlighter,
	}
	for _, doc := range loaded {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := pipeline.Run(doc, opts)
		if err != nil {
			return nil, pipelineError(err, doc.RelPath)
		}
		doc.HTML = res.HTML
		doc.TOC = res.TOC
		rep.Problems.AddWarnings(doc.RelPath, res.Warnings)
		s.dirs[doc.Dir()] = append(s.dirs[doc.Dir()], doc)
	}

	s.index = b.Freeze()
	rep.Documents = len(loaded)
	log.Info("Scanned documents",
		logfields.Count(len(loaded)),
		slog.Int("excluded", rep.Excluded),
		logfields.Since(start))
	return s, nil
}

func pipelineError(err error, rel string) error {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.WithContext("path", rel)
	}
	return errors.WrapError(err, errors.CategoryRender, "failed to render document").
		Fatal().
		WithContext("path", rel).
		Build()
}

// attachmentSet lists the attachment paths referenced by any document.
func attachmentSet(s *site) map[string]bool {
	set := make(map[string]bool)
	for _, p := range s.index.Attachments() {
		set[p] = true
	}
	return set
}
