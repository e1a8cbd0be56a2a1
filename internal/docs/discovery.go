// Package docs finds the markdown sources of a site and loads them.
package docs

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"git.home.luguber.info/inful/marksite/internal/docmodel"
	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
	"git.home.luguber.info/inful/marksite/internal/logfields"
)

// DocFile is a discovered markdown source.
type DocFile struct {
	Path         string // absolute path
	RelativePath string // slash separated, relative to the site root
	ModTime      time.Time
	Content      []byte // loaded on demand
}

// Discovery walks a site root for markdown files.
type Discovery struct {
	root        string
	skipDirs    []string // absolute
	ignoredDirs []string // absolute
	patterns    *ignore.GitIgnore
}

// NewDiscovery creates a discovery over root. ignoredDirs are resolved
// against root; a file under any of them is skipped. patterns use .gitignore
// syntax and are matched against root relative paths. skipDirs are absolute
// directories that never hold sources, such as the tool directory.
func NewDiscovery(root string, ignoredDirs, patterns []string, skipDirs ...string) *Discovery {
	d := &Discovery{root: filepath.Clean(root), skipDirs: skipDirs}
	for _, dir := range ignoredDirs {
		d.ignoredDirs = append(d.ignoredDirs, filepath.Join(d.root, filepath.FromSlash(dir)))
	}
	if len(patterns) > 0 {
		d.patterns = ignore.CompileIgnoreLines(patterns...)
	}
	return d
}

// Root returns the directory discovery walks.
func (d *Discovery) Root() string { return d.root }

// DiscoverDocs returns every eligible markdown file in lexical order of its
// relative path. Content is not loaded.
func (d *Discovery) DiscoverDocs(ctx context.Context) ([]DocFile, error) {
	var files []DocFile
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			if path != d.root && d.skipDir(path, entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsMarkdownFile(path) || strings.HasPrefix(entry.Name(), ".") {
			return nil
		}
		if d.Ignored(path) {
			slog.Debug("Ignoring file", logfields.Path(path))
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		files = append(files, DocFile{
			Path:         path,
			RelativePath: filepath.ToSlash(rel),
			ModTime:      info.ModTime(),
		})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to walk site root").
			Fatal().
			WithContext("root", d.root).
			Build()
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})
	slog.Debug("Documents discovered", logfields.Count(len(files)))
	return files, nil
}

func (d *Discovery) skipDir(path, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, s := range d.skipDirs {
		if path == s {
			return true
		}
	}
	return false
}

// Ignored reports whether the absolute path lies under an ignored directory
// or matches an ignore pattern.
func (d *Discovery) Ignored(path string) bool {
	for _, dir := range d.ignoredDirs {
		if within(dir, path) {
			return true
		}
	}
	if d.patterns == nil {
		return false
	}
	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		return false
	}
	return d.patterns.MatchesPath(filepath.ToSlash(rel))
}

// within reports whether path equals dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// LoadContent reads the file content once.
func (df *DocFile) LoadContent() error {
	if df.Content != nil {
		return nil
	}
	content, err := os.ReadFile(df.Path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to read document").
			Fatal().
			WithContext("path", df.Path).
			Build()
	}
	df.Content = content
	return nil
}

// Source converts a loaded file into the document model input.
func (df *DocFile) Source() docmodel.Source {
	return docmodel.Source{
		Path:    df.Path,
		RelPath: df.RelativePath,
		Content: df.Content,
		ModTime: df.ModTime,
	}
}

// IsMarkdownFile checks if a file is a markdown file.
func IsMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown"
}
