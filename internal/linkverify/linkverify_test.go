package linkverify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinksFromReader(t *testing.T) {
	links, err := ExtractLinksFromReader(strings.NewReader(
		`<p><a href="https://e.com/a.html"> A <b>page</b></a><img src="x.png" alt="pic"><a>no href</a></p>`))
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, Link{URL: "https://e.com/a.html", Text: "Apage", Tag: "a", Attribute: "href"}, links[0])
	assert.Equal(t, Link{URL: "x.png", Text: "pic", Tag: "img", Attribute: "src"}, links[1])
}

func TestVerifier_Broken(t *testing.T) {
	known := map[string]bool{
		"a.html":           true,
		"notes/index.html": true,
		"index.html":       true,
		"files/My Doc.pdf": true,
	}
	v, err := NewVerifier("https://e.com/site", func(rel string) bool { return known[rel] })
	require.NoError(t, err)

	page := `
<a href="https://e.com/site/a.html#frag">ok</a>
<a href="https://e.com/site/missing.html">missing</a>
<a href="https://e.com/site/notes/">dir</a>
<a href="https://e.com/site">root</a>
<a href="https://e.com/other/a.html">outside base</a>
<a href="https://elsewhere.org/site/x.html">external</a>
<a href="#local">fragment</a>
<a href="mailto:me@e.com">mail</a>
<img src="https://e.com/site/files/My%20Doc.pdf">
<img src="https://e.com/site/img/gone.png" alt="gone">
`
	broken, err := v.Broken([]byte(page))
	require.NoError(t, err)

	var urls []string
	for _, l := range broken {
		urls = append(urls, l.URL)
	}
	assert.Equal(t, []string{
		"https://e.com/site/missing.html",
		"https://e.com/site/img/gone.png",
	}, urls)
}

func TestVerifier_RootBase(t *testing.T) {
	v, err := NewVerifier("http://localhost:8080", func(rel string) bool { return rel == "index.html" })
	require.NoError(t, err)
	broken, err := v.Broken([]byte(`<a href="http://localhost:8080/">home</a><a href="http://localhost:8080/x.html">x</a>`))
	require.NoError(t, err)
	require.Len(t, broken, 1)
	assert.Equal(t, "x", broken[0].Text)
}
