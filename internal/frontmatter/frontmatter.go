package frontmatter

import (
	"bufio"
	"bytes"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a frontmatter
// delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// Split separates `---` delimited frontmatter from the markdown body.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input. A closing delimiter may be the last line of the file.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		if bytes.Equal(bytes.TrimRight(content, "\r\n"), []byte("---")) {
			return nil, nil, false, ErrMissingClosingDelimiter
		}
		return nil, content, false, nil
	}

	start := len(open)
	rest := content[start:]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}
	if bytes.Equal(rest, []byte("---")) {
		return []byte{}, []byte{}, true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
	}
	if closeEOF := []byte(nl + "---"); bytes.HasSuffix(rest, closeEOF) {
		return rest[:len(rest)-len("---")], []byte{}, true, nil
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// Fields holds the recognised frontmatter keys. Unknown keys are ignored.
// Dates stay raw strings so callers can record parse failures per document.
type Fields struct {
	Title       string
	Summary     string
	Template    string
	DateCreated string
	DateUpdated string
	Tags        []string
	Publish     *bool
	InSitemap   *bool

	// LineFallback is set when the block was not valid YAML and was read line by line.
	LineFallback bool
}

// Parse reads a frontmatter block (without delimiters). Valid YAML is decoded
// with yaml.v3; anything else falls back to a line-wise `key: value` reading so
// that values such as `title: Part 1: Intro` still work.
func Parse(frontmatter []byte) Fields {
	var f Fields
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return f
	}

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(frontmatter, &raw); err != nil {
		f.LineFallback = true
		sc := bufio.NewScanner(bytes.NewReader(frontmatter))
		for sc.Scan() {
			key, value, ok := strings.Cut(sc.Text(), ":")
			if !ok {
				continue
			}
			f.set(key, strings.TrimSpace(value), nil)
		}
		return f
	}

	for key, node := range raw {
		if node.Kind == yaml.SequenceNode {
			items := make([]string, 0, len(node.Content))
			for _, item := range node.Content {
				items = append(items, item.Value)
			}
			f.set(key, "", items)
			continue
		}
		f.set(key, strings.TrimSpace(node.Value), nil)
	}
	return f
}

// set assigns one key. Scalar values arrive in value; YAML sequences in list.
func (f *Fields) set(key, value string, list []string) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "title":
		f.Title = value
	case "summary":
		f.Summary = value
	case "template":
		f.Template = value
	case "date_created":
		f.DateCreated = value
	case "date_updated":
		f.DateUpdated = value
	case "publish":
		b := value != "false"
		f.Publish = &b
	case "in_sitemap":
		b := value != "false"
		f.InSitemap = &b
	case "tag", "tags":
		if list == nil {
			list = strings.Split(value, ",")
		}
		f.Tags = dedupe(list)
	}
}

func dedupe(parts []string) []string {
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
