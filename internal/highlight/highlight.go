// Package highlight renders fenced code blocks with chroma and produces the
// matching theme stylesheets.
package highlight

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
	"git.home.luguber.info/inful/marksite/internal/slug"
)

// ClassPrefix prefixes every CSS class chroma emits.
const ClassPrefix = "syntax-"

var fenceLanguage = regexp.MustCompile(`^\w+$`)

// aliases maps fence languages to the lexer name chroma knows them by.
var aliases = map[string]string{
	"elixir":  "elixir",
	"clojure": "clojure",
	"haskell": "haskell",
	"perl":    "perl",
	"python":  "python",
	"python3": "python",
	"racket":  "racket",
	"ruby":    "ruby",
	"rust":    "rust",
	"shell":   "bash",
	"sh":      "bash",
	"elm":     "elm",
}

// Highlighter turns code into class annotated HTML.
type Highlighter struct {
	formatter *chromahtml.Formatter
}

// New returns a Highlighter emitting ClassPrefix classes without inline styles.
func New() *Highlighter {
	return &Highlighter{formatter: newFormatter()}
}

func newFormatter() *chromahtml.Formatter {
	return chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.ClassPrefix(ClassPrefix),
		chromahtml.PreventSurroundingPre(true),
	)
}

// ValidateLanguage checks a fence language tag. An empty tag is valid.
func ValidateLanguage(lang string) error {
	if lang == "" || fenceLanguage.MatchString(lang) {
		return nil
	}
	return errors.HighlightError(fmt.Sprintf("malformed code fence language %q", lang)).Build()
}

// Lexer resolves a fence language to a chroma lexer, or nil when unknown.
func Lexer(lang string) chroma.Lexer {
	if lang == "" {
		return nil
	}
	name := strings.ToLower(lang)
	if mapped, ok := aliases[name]; ok {
		name = mapped
	}
	return lexers.Get(name)
}

// Block renders a complete fenced block. Known languages are wrapped as
// `<pre class="syntax-code"><code class="highlight code {lang}">`; empty or
// unknown languages fall back to escaped text in a bare <code>.
func (h *Highlighter) Block(lang, code string) (string, error) {
	if err := ValidateLanguage(lang); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(`<pre class="syntax-code">`)
	lexer := Lexer(lang)
	if lexer == nil {
		b.WriteString("<code>")
		b.Write(util.EscapeHTML([]byte(code)))
		b.WriteString("</code></pre>\n")
		return b.String(), nil
	}

	highlighted, err := h.highlight(lexer, code)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryHighlight, "highlight code block").
			Fatal().
			WithContext("language", lang).
			Build()
	}
	b.WriteString(`<code class="highlight code `)
	b.WriteString(slug.Make(lexer.Config().Name))
	b.WriteString(`">`)
	b.WriteString(highlighted)
	b.WriteString("</code></pre>\n")
	return b.String(), nil
}

func (h *Highlighter) highlight(lexer chroma.Lexer, code string) (string, error) {
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, styles.Fallback, it); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// WriteThemeCSS writes the stylesheet for a chroma style using ClassPrefix
// selectors. Unknown style names fall back to chroma's default style.
func WriteThemeCSS(w io.Writer, styleName string) error {
	return newFormatter().WriteCSS(w, styles.Get(styleName))
}
