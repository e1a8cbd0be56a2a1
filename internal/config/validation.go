package config

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.AttachmentDirectory, validation.By(relativeDir)),
		validation.Field(&c.TagsURL, validation.By(relativeDir)),
		validation.Field(&c.Theme, validation.By(plainName)),
		validation.Field(&c.IgnoredDirectories, validation.Each(validation.Required)),
	); err != nil {
		return err
	}
	if err := c.Wikilinks.Validate(); err != nil {
		return fmt.Errorf("wikilinks: %w", err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := c.Syntax.Validate(); err != nil {
		return fmt.Errorf("syntax: %w", err)
	}
	return nil
}

// Validate validates the wikilink configuration.
func (c *WikilinksConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Unresolved, validation.Required, validation.In(WikilinkSelf, WikilinkText)),
	)
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required),
		validation.Field(&c.MaxDelay, validation.Required, validation.Min(c.Debounce)),
	)
}

// Validate checks that both syntax styles are registered with chroma.
func (c *SyntaxConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dark, validation.Required, validation.By(knownStyle)),
		validation.Field(&c.Light, validation.Required, validation.By(knownStyle)),
	)
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute URL such as https://example.com")
	}
	return nil
}

func relativeDir(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if path.IsAbs(s) || strings.HasPrefix(path.Clean(s), "..") {
		return fmt.Errorf("must be a directory inside the site root")
	}
	return nil
}

func plainName(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return fmt.Errorf("must be a plain directory name")
	}
	return nil
}

func knownStyle(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, ok := styles.Registry[strings.ToLower(s)]; !ok {
		return fmt.Errorf("unknown style %q", s)
	}
	return nil
}
