package config

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
)

// Layout is the set of absolute directories a build works with.
type Layout struct {
	Root       string // site root holding the markdown sources
	ToolDir    string // <root>/_marksite
	ConfigFile string
	// TemplatesDir and PublicDir point into the selected theme when one is configured.
	TemplatesDir string
	PublicDir    string
	OutputDir    string // <root>/_marksite/_site
	// AttachmentsDir is empty when no attachment directory is configured.
	AttachmentsDir string
}

// OutputPublicDir is where PublicDir is copied to.
func (l Layout) OutputPublicDir() string {
	return filepath.Join(l.OutputDir, "public")
}

// NewLayout resolves the directories for root and cfg. A configured theme must
// provide both a templates and a public directory.
func NewLayout(root string, cfg *Config) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, errors.WrapError(err, errors.CategoryConfig, "cannot resolve site root").
			WithContext("root", root).
			Build()
	}
	tool := filepath.Join(abs, ToolDirName)
	l := Layout{
		Root:         abs,
		ToolDir:      tool,
		ConfigFile:   filepath.Join(tool, ConfigFileName),
		TemplatesDir: filepath.Join(tool, "templates"),
		PublicDir:    filepath.Join(tool, "public"),
		OutputDir:    filepath.Join(tool, OutputDirName),
	}
	if cfg.AttachmentDirectory != "" {
		l.AttachmentsDir = filepath.Join(abs, filepath.FromSlash(cfg.AttachmentDirectory))
	}
	if cfg.Theme == "" {
		return l, nil
	}

	themeDir := filepath.Join(tool, "themes", cfg.Theme)
	templates := filepath.Join(themeDir, "templates")
	public := filepath.Join(themeDir, "public")
	if !isDir(templates) || !isDir(public) {
		return Layout{}, errors.ConfigError("theme must contain a templates and a public directory").
			WithContext("theme", cfg.Theme).
			WithContext("path", themeDir).
			Build()
	}
	l.TemplatesDir = templates
	l.PublicDir = public
	return l, nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
