package linkverify

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
)

// Verifier checks links that point into the site against the set of
// generated files.
type Verifier struct {
	base   *url.URL
	exists func(rel string) bool
}

// NewVerifier returns a verifier for links under baseURL. exists reports
// whether an output relative, slash separated path was generated.
func NewVerifier(baseURL string, exists func(rel string) bool) (*Verifier, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "invalid base URL").
			WithContext("base_url", baseURL).
			Build()
	}
	return &Verifier{base: base, exists: exists}, nil
}

// Broken returns the links of a rendered page that point into the site but
// match no generated file.
func (v *Verifier) Broken(page []byte) ([]Link, error) {
	links, err := ExtractLinksFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	var broken []Link
	for _, l := range links {
		rel, ok := v.siteRelative(l.URL)
		if !ok {
			continue
		}
		if !v.exists(rel) {
			broken = append(broken, l)
		}
	}
	return broken, nil
}

// siteRelative maps an absolute link under the base URL to an output relative
// path. Directory links resolve to their index.html.
func (v *Verifier) siteRelative(link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil || u.Scheme != v.base.Scheme || u.Host != v.base.Host {
		return "", false
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, v.base.Path) {
		if p+"/" != v.base.Path {
			return "", false
		}
		p = v.base.Path
	}
	rel := strings.TrimPrefix(p, v.base.Path)
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel += "index.html"
	}
	return strings.TrimPrefix(path.Clean("/"+rel), "/"), true
}
