package pipeline

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/marksite/internal/markdown"
	"git.home.luguber.info/inful/marksite/internal/slug"
)

var wikilinkPattern = regexp.MustCompile(`\[\[(.*?)\]\]`)

// UnresolvedPolicy decides what an unresolvable wiki reference becomes.
type UnresolvedPolicy string

const (
	// UnresolvedSelf links to the reference name itself.
	UnresolvedSelf UnresolvedPolicy = "self"
	// UnresolvedText keeps only the label as plain text.
	UnresolvedText UnresolvedPolicy = "text"
)

// WarningKind classifies a resolution warning.
type WarningKind string

const (
	WarningUnresolved WarningKind = "unresolved_wikilink"
	WarningAmbiguous  WarningKind = "ambiguous_wikilink"
)

// Warning describes a wiki reference that did not resolve to exactly one page.
type Warning struct {
	Kind       WarningKind
	Reference  string
	Candidates []string
	Chosen     string
}

// NormalizeWikilinks rewrites `[[target]]` and `[[target|label]]` into
// ordinary markdown links before tokenizing. Targets are looked up in the flat
// sitemap; with several candidates the first registered one wins and a
// warning is returned. References inside code blocks and code spans are
// left alone.
func NormalizeWikilinks(body []byte, resolver Resolver, policy UnresolvedPolicy) ([]byte, []Warning) {
	if !bytes.Contains(body, []byte("[[")) {
		return body, nil
	}
	matches := wikilinkPattern.FindAllIndex(body, -1)
	if len(matches) == 0 {
		return body, nil
	}
	code := markdown.CodeRanges(body)

	var (
		out      bytes.Buffer
		warnings []Warning
		last     int
	)
	for _, loc := range matches {
		if inCode(code, loc[0], loc[1]) {
			continue
		}
		out.Write(body[last:loc[0]])
		out.Write(rewriteWikilink(body[loc[0]:loc[1]], resolver, policy, &warnings))
		last = loc[1]
	}
	out.Write(body[last:])
	return out.Bytes(), warnings
}

func inCode(code []markdown.Range, start, stop int) bool {
	for _, r := range code {
		if r.Overlaps(start, stop) {
			return true
		}
	}
	return false
}

// rewriteWikilink turns one `[[...]]` match into a markdown link, appending
// any resolution warning to warnings.
func rewriteWikilink(m []byte, resolver Resolver, policy UnresolvedPolicy, warnings *[]Warning) []byte {
	inner := string(m[2 : len(m)-2])
	target, label, hasLabel := strings.Cut(inner, "|")
	target = strings.TrimSpace(target)
	label = strings.TrimSpace(label)
	if !hasLabel || label == "" {
		label = target
	}
	name, fragment, _ := strings.Cut(target, "#")
	name = strings.TrimSuffix(strings.TrimSpace(name), ".md")
	if name == "" {
		return m
	}

	var candidates []string
	if resolver != nil {
		candidates = resolver.Resolve(name)
	}

	var chosen string
	switch len(candidates) {
	case 0:
		*warnings = append(*warnings, Warning{Kind: WarningUnresolved, Reference: name})
		if policy == UnresolvedText {
			return []byte(label)
		}
		chosen = name
	case 1:
		chosen = candidates[0]
	default:
		chosen = candidates[0]
		*warnings = append(*warnings, Warning{
			Kind:       WarningAmbiguous,
			Reference:  name,
			Candidates: append([]string(nil), candidates...),
			Chosen:     chosen,
		})
	}
	return []byte("[" + label + "](" + destination(chosen, fragment) + ")")
}

// destination escapes a relative path (without extension) for use as a
// markdown link destination.
func destination(rel, fragment string) string {
	segs := strings.Split(rel, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	d := strings.Join(segs, "/") + ".md"
	if fragment != "" {
		d += "#" + slug.Make(fragment)
	}
	return d
}
