// Package config loads the site configuration from _marksite/config.yaml and
// resolves the directory layout a build reads from and writes to.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
)

const (
	// ToolDirName is the directory under the site root holding configuration,
	// templates, static files, themes and the generated site.
	ToolDirName = "_marksite"
	// OutputDirName is the generated site directory inside ToolDirName.
	OutputDirName = "_site"
	// ConfigFileName is the configuration file inside ToolDirName.
	ConfigFileName = "config.yaml"
)

// WikilinkPolicy decides what an unresolvable [[reference]] turns into.
type WikilinkPolicy string

const (
	WikilinkSelf WikilinkPolicy = "self"
	WikilinkText WikilinkPolicy = "text"
)

// Config represents the site configuration.
type Config struct {
	URL                 string   `yaml:"url"`
	Title               string   `yaml:"title"`
	Description         string   `yaml:"description,omitempty"`
	AttachmentDirectory string   `yaml:"attachment_directory,omitempty"`
	IgnoredDirectories  []string `yaml:"ignored_directories,omitempty"`
	// IgnorePatterns uses .gitignore syntax, matched against root relative paths.
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"`
	// TagsURL enables one page per tag under <site>/<TagsURL>/.
	TagsURL string `yaml:"tags_url,omitempty"`
	// Theme selects _marksite/themes/<Theme> instead of the top level
	// templates and public directories.
	Theme     string          `yaml:"theme,omitempty"`
	Wikilinks WikilinksConfig `yaml:"wikilinks"`
	Watch     WatchConfig     `yaml:"watch"`
	Syntax    SyntaxConfig    `yaml:"syntax"`
}

// WikilinksConfig controls [[reference]] resolution.
type WikilinksConfig struct {
	Unresolved WikilinkPolicy `yaml:"unresolved"`
}

// WatchConfig controls rebuild coalescing in watch mode.
type WatchConfig struct {
	// Debounce is the quiet window after the last change before a rebuild.
	Debounce time.Duration `yaml:"debounce"`
	// MaxDelay bounds how long a continuous stream of changes can postpone a rebuild.
	MaxDelay time.Duration `yaml:"max_delay"`
}

// SyntaxConfig names the chroma styles for the generated syntax stylesheets.
type SyntaxConfig struct {
	Dark  string `yaml:"dark"`
	Light string `yaml:"light"`
}

// Default values applied by Load.
const (
	DefaultTitle         = "My Site"
	DefaultDebounce      = 300 * time.Millisecond
	DefaultMaxDelay      = 5 * time.Second
	DefaultDarkStyle     = "monokai"
	DefaultLightStyle    = "github"
	DefaultUnresolvedSet = WikilinkSelf
)

// Load reads <root>/_marksite/config.yaml. Environment variables from .env
// files in root are loaded first and ${VAR} references in the file are
// expanded. Defaults are applied before validation.
func Load(root string) (*Config, error) {
	loadEnvFiles(root)

	path := filepath.Join(root, ToolDirName, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", path).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", path).
			Build()
	}
	return Parse(data, path)
}

// Parse decodes, defaults and validates configuration data. path is used in
// error context only.
func Parse(data []byte, path string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
			WithContext("path", path).
			Build()
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid configuration").
			WithContext("path", path).
			Build()
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.URL = strings.TrimSuffix(strings.TrimSpace(c.URL), "/")
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	c.TagsURL = strings.Trim(c.TagsURL, "/")
	c.AttachmentDirectory = strings.Trim(filepath.ToSlash(c.AttachmentDirectory), "/")
	c.Wikilinks.Unresolved = WikilinkPolicy(strings.ToLower(strings.TrimSpace(string(c.Wikilinks.Unresolved))))
	if c.Wikilinks.Unresolved == "" {
		c.Wikilinks.Unresolved = DefaultUnresolvedSet
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = DefaultDebounce
	}
	if c.Watch.MaxDelay <= 0 {
		c.Watch.MaxDelay = DefaultMaxDelay
	}
	if c.Syntax.Dark == "" {
		c.Syntax.Dark = DefaultDarkStyle
	}
	if c.Syntax.Light == "" {
		c.Syntax.Light = DefaultLightStyle
	}
}
