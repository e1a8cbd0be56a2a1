package config

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
)

// scaffoldFiles are written by Init, relative to the tool directory.
var scaffoldFiles = []struct {
	path    string
	content string
}{
	{ConfigFileName, defaultConfigYAML},
	{"templates/base.html", defaultBaseHTML},
	{"templates/single.html", defaultSingleHTML},
	{"templates/list.html", defaultListHTML},
	{"templates/tags.html", defaultTagsHTML},
	{"templates/feed.rss", defaultFeedRSS},
	{"public/css/main.css", defaultMainCSS},
	{"public/js/main.js", defaultMainJS},
}

// Init scaffolds a new site under root: a commented config.yaml, the default
// templates and the public assets. It refuses to touch an existing tool
// directory unless force is set, in which case the scaffold files are
// overwritten and everything else is left alone.
func Init(root string, force bool) error {
	tool := filepath.Join(root, ToolDirName)
	if _, err := os.Stat(tool); err == nil && !force {
		return errors.ConfigError("site already initialized (use --force to overwrite)").
			WithContext("path", tool).
			Build()
	}
	for _, f := range scaffoldFiles {
		path := filepath.Join(tool, filepath.FromSlash(f.path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create directory").
				WithContext("path", filepath.Dir(path)).
				Build()
		}
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to write scaffold file").
				WithContext("path", path).
				Build()
		}
	}
	return nil
}
