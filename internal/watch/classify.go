package watch

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/marksite/internal/config"
	"git.home.luguber.info/inful/marksite/internal/docs"
	"git.home.luguber.info/inful/marksite/internal/events"
)

// Classifier maps a changed path to the rebuild it requires.
type Classifier struct {
	layout    config.Layout
	discovery *docs.Discovery
	outputs   []string
}

// NewClassifier returns a classifier for the directories of layout. Markdown
// files excluded by cfg's ignore rules are ignored.
func NewClassifier(layout config.Layout, cfg *config.Config) *Classifier {
	return &Classifier{
		layout:    layout,
		discovery: docs.NewDiscovery(layout.Root, cfg.IgnoredDirectories, cfg.IgnorePatterns, layout.ToolDir),
		outputs:   []string{layout.OutputDir, layout.OutputDir + "_stage", layout.OutputDir + ".prev"},
	}
}

// Classify returns exactly one rebuild kind for path:
//   - full for the config file, .env files and anything under the templates directory
//   - assets for the public and attachment directories
//   - markdown for markdown sources outside the tool directory
//   - none for everything else, including the generated output
func (c *Classifier) Classify(path string) events.RebuildKind {
	path = filepath.Clean(path)
	if shouldIgnoreEvent(path) {
		return events.RebuildNone
	}
	for _, out := range c.outputs {
		if within(out, path) {
			return events.RebuildNone
		}
	}

	switch {
	case path == c.layout.ConfigFile, within(c.layout.TemplatesDir, path), c.isEnvFile(path):
		return events.RebuildFull
	case within(c.layout.PublicDir, path):
		return events.RebuildAssets
	case within(c.layout.ToolDir, path):
		return events.RebuildNone
	case docs.IsMarkdownFile(path):
		if c.discovery.Ignored(path) {
			return events.RebuildNone
		}
		return events.RebuildMarkdown
	case c.layout.AttachmentsDir != "" && within(c.layout.AttachmentsDir, path):
		return events.RebuildAssets
	}
	return events.RebuildNone
}

// ClassifyTree classifies a path that is or was a directory, as seen on
// directory creation, removal and rename. A directory of the content tree may
// hold markdown, so it asks for a markdown rebuild.
func (c *Classifier) ClassifyTree(path string) events.RebuildKind {
	path = filepath.Clean(path)
	kind := c.Classify(path)
	if kind != events.RebuildNone || shouldIgnoreEvent(path) || filepath.Ext(path) != "" {
		return kind
	}
	if within(c.layout.ToolDir, path) || !within(c.layout.Root, path) || c.discovery.Ignored(path) {
		return events.RebuildNone
	}
	return events.RebuildMarkdown
}

func (c *Classifier) isEnvFile(path string) bool {
	if filepath.Dir(path) != c.layout.Root {
		return false
	}
	base := filepath.Base(path)
	return base == ".env" || base == ".env.local"
}

// shouldIgnoreEvent filters hidden, editor swap and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if base == ".env" || base == ".env.local" {
		return false
	}
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db" || base == "4913"
}

func within(dir, path string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
