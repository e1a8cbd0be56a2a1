package config

const defaultConfigYAML = `# site-wide configuration
# your site's url
url: "http://localhost:8080"

# site title
title: "My Site"

# site description
description: "My Site Description"

# directory (relative to the site root) holding attachments
attachment_directory: "attachments"

# directories to ignore
ignored_directories: ["dailies", "jots", "templates"]

# extra ignore rules in .gitignore syntax
ignore_patterns: ["*.draft.md"]

# url under which one page per tag is generated
tags_url: "tags"

# what an unresolvable [[reference]] becomes: self (a link to the name) or text
wikilinks:
  unresolved: self

watch:
  debounce: 300ms
  max_delay: 5s

# chroma styles used for the generated syntax stylesheets
syntax:
  dark: monokai
  light: github
`

const defaultBaseHTML = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{{.Site.Title}} - {{block "title" .}}{{.Page.Title}}{{end}}</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <script src="{{.BaseURL}}/public/js/main.js"></script>
    <link rel="stylesheet" href="{{.BaseURL}}/public/css/main.css" type="text/css" media="screen" />
    <link rel="alternate" type="application/rss+xml" href="{{.BaseURL}}/feed.rss" title="{{.Site.Title}}" />
  </head>

  <body>
    <main>
      <article>
        {{block "content" .}}
        {{with .Page.Title}}<h1>{{.}}</h1>{{end}}
        {{.Page.Content}}
        {{end}}
      </article>

      {{with .Page.Backlinks}}
      <h2>Backlinks</h2>
      <ul>
        {{range .}}<li><a href="{{.OriginURL}}">{{.OriginTitle}}</a></li>
        {{end}}
      </ul>
      {{end}}

      {{with .Page.Related}}
      <h2>Related</h2>
      <ul>
        {{range .}}<li><a href="{{.URL}}">{{.Title}}</a></li>
        {{end}}
      </ul>
      {{end}}
    </main>

    <aside>
      {{with .Page.TOC}}
      <h3>Contents</h3>
      <ul>
        {{range .}}<li class="toc-{{.HeadingLevel}}"><a href="{{.URL}}">{{.Title}}</a></li>
        {{end}}
      </ul>
      {{end}}

      <h3>Tags</h3>
      <ul>
        {{range .Tags}}<li><a href="{{.URL}}">{{.Name}} ({{len .Members}})</a></li>
        {{end}}
      </ul>

      <h3>Sitemap</h3>
      <ul>
        {{range .Sitemap}}<li><a href="{{.URL}}">{{.Title}}</a></li>
        {{end}}
      </ul>
    </aside>
  </body>
</html>
`

const defaultSingleHTML = `{{template "base.html" .}}
`

const defaultListHTML = `{{template "base.html" .}}
{{define "content"}}
  {{with .Page.Title}}<h1>{{.}}</h1>{{end}}
  {{.Page.Content}}
  <ol reversed>
    {{range .Section.Pages}}
    <li style="list-style-type: none; margin-bottom: 32px">
      <a href="{{.URL}}"><h3>{{.Title}}</h3></a>
      <i>{{.Summary}}</i>
      <div class="text-sm text-alt">{{.DateCreated}}</div>
    </li>
    {{end}}
  </ol>
{{end}}
`

const defaultTagsHTML = `{{template "base.html" .}}
{{define "title"}}Tags{{end}}
{{define "content"}}
  <h3>{{.Tag.Name}}</h3>
  <ul>
    {{range .Tag.Members}}<li><a href="{{.URL}}">{{.Title}}</a></li>
    {{end}}
  </ul>
{{end}}
`

const defaultFeedRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>{{xml .Site.Title}}</title>
    <link>{{xml .Site.URL}}</link>
    <description>{{xml .Site.Description}}</description>
    {{- range .Pages}}
    <item>
      <title>{{xml .Title}}</title>
      <link>{{xml .URL}}</link>
      <guid>{{xml .URL}}</guid>
      <pubDate>{{rfc1123 .Created}}</pubDate>
      {{- with .Summary}}
      <description>{{xml .}}</description>
      {{- end}}
    </item>
    {{- end}}
  </channel>
</rss>
`

const defaultMainJS = `
`

const defaultMainCSS = `@import url("syntax-theme-dark.css") (prefers-color-scheme: dark);
@import url("syntax-theme-light.css") (prefers-color-scheme: light);

:root {
  --bg: #efefef;
  --color: #333;
  --color-alt: #666;
  --link-color: #2980b9;
}

@media (prefers-color-scheme: dark) {
  :root {
    --bg: #111;
    --color: #dfdfdf;
    --color-alt: #666;
    --link-color: #fdcb6e;
  }
}

body {
  color: var(--color);
  background-color: var(--bg);
  max-width: 48em;
  margin: 0 auto;
  display: flex;
  flex-direction: column;
  font-family: "Charter", Arial;
  padding: 64px 0;
}

.footnote-definition {
  display: flex;
  align-items: baseline;
}

pre {
  overflow: scroll;
  border: 1px solid #dfdfdf;
  padding: 16px;
  margin: 24px 0;
}

a {
  color: var(--link-color);
  text-decoration: none;
}

a:visited {
  color: var(--color);
}

ul, ol {
  padding-left: 16px;
}

img { max-width: 100%; }

.text-sm { font-size: 12px; }
.text-alt { color: var(--color-alt); }
`
