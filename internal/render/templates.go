package render

// tileTemplate renders one entry card. The card is an article rather than an
// anchor so the tag links inside it stay valid HTML; data-href carries the
// card's navigation target.
const tileTemplate = `{{define "tile"}}<article class="mt-tile" data-id="{{.ID}}" data-href="{{.URL}}" style="--mt-color: {{.Color}}">
{{- if .Image}}<img class="mt-image" src="{{.Image}}" alt="{{.ImageAlt}}" loading="lazy" decoding="async">{{end -}}
<div class="mt-content">
<h3 class="mt-title"><a class="mt-link" href="{{.URL}}">{{.Title}}</a></h3>
{{- if .HTMLDescription}}
<div class="mt-description">{{.HTMLDescription}}</div>
{{- else}}
<p class="mt-description">{{.Description}}</p>
{{- end}}
<p class="mt-description mt-info">{{.Info}}</p>
<div class="mt-tags">{{range .Tags}}<a class="mt-tag" href="{{.URL}}">{{.Name}}</a>{{end}}</div>
</div>
</article>{{end}}`

const emptyTemplate = `{{define "empty"}}<p class="mt-empty">{{.}}</p>{{end}}`

const pageTemplate = `{{define "page"}}<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{if .Title}}{{.Title}} | {{end}}{{.SiteTitle}}</title>
<link rel="stylesheet" href="{{.Stylesheet}}">
</head>
<body>
<main id="mt-list" class="mt-page"{{with .Source}} data-json="{{.}}"{{end}}>
{{- if .Title}}
<h1 class="mt-heading">{{.Title}}</h1>
{{- end}}
{{- if .Tags}}
<ul class="mt-tag-index">
{{- range .Tags}}
<li><a class="mt-tag" href="{{tagURL .Slug}}">{{.Name}}</a> <span class="mt-count">{{.Count}}</span></li>
{{- end}}
</ul>
{{- else if .Empty}}
{{template "empty" .Message}}
{{- else}}
{{.Tiles}}
{{- end}}
{{- with .Pager}}{{if gt .PageCount 1}}
<nav class="mt-pager">
{{- if .HasPrev}}<a class="mt-prev" rel="prev" href="{{.PrevURL}}">&larr;</a>{{end}}
{{- range .Pages}}{{if .Current}}<span class="mt-current" aria-current="page">{{.Number}}</span>{{else}}<a class="mt-page-link" href="{{.URL}}">{{.Number}}</a>{{end}}{{end}}
{{- if .HasNext}}<a class="mt-next" rel="next" href="{{.NextURL}}">&rarr;</a>{{end}}
</nav>
{{- end}}{{end}}
</main>
</body>
</html>
{{end}}`

// Stylesheet is served as catalogue.css by both the server and the static build.
const Stylesheet = `:root {
  --mt-radius: 12px;
  --mt-gap: 1.25rem;
  --mt-fg: #1f2328;
  --mt-muted: #656d76;
  --mt-bg: #ffffff;
  --mt-border: #d0d7de;
}

body {
  margin: 0;
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", "PingFang SC", "Noto Sans CJK SC", sans-serif;
  color: var(--mt-fg);
  background: var(--mt-bg);
}

.mt-page {
  max-width: 1100px;
  margin: 0 auto;
  padding: 2rem 1rem;
}

.mt-container {
  display: grid;
  grid-template-columns: repeat(auto-fill, minmax(300px, 1fr));
  gap: var(--mt-gap);
}

.mt-tile {
  position: relative;
  display: flex;
  flex-direction: column;
  overflow: hidden;
  border: 1px solid var(--mt-border);
  border-radius: var(--mt-radius);
  background: linear-gradient(var(--mt-color), var(--mt-color)), var(--mt-bg);
  transition: transform 0.2s ease, box-shadow 0.2s ease;
}

.mt-tile:hover {
  transform: translateY(-2px);
  box-shadow: 0 6px 18px rgba(0, 0, 0, 0.08);
}

.mt-image {
  width: 100%;
  aspect-ratio: 16 / 9;
  object-fit: cover;
}

.mt-content {
  padding: 1rem 1.25rem;
}

.mt-title {
  margin: 0 0 0.5rem;
  font-size: 1.15rem;
}

.mt-link {
  color: inherit;
  text-decoration: none;
}

.mt-link::after {
  content: "";
  position: absolute;
  inset: 0;
}

.mt-description {
  margin: 0 0 0.5rem;
  color: var(--mt-muted);
  line-height: 1.6;
}

.mt-info {
  font-size: 0.85rem;
}

.mt-tags {
  display: flex;
  flex-wrap: wrap;
  gap: 0.4rem;
}

.mt-tag {
  position: relative;
  z-index: 1;
  padding: 0.15rem 0.6rem;
  border-radius: 999px;
  border: 1px solid var(--mt-border);
  color: var(--mt-fg);
  font-size: 0.8rem;
  text-decoration: none;
}

.mt-tag:hover {
  background: var(--mt-border);
}

.mt-empty {
  color: var(--mt-muted);
  text-align: center;
}

.mt-tag-index {
  list-style: none;
  padding: 0;
  display: flex;
  flex-wrap: wrap;
  gap: 0.75rem;
}

.mt-count {
  color: var(--mt-muted);
  font-size: 0.8rem;
}

.mt-pager {
  display: flex;
  justify-content: center;
  gap: 0.5rem;
  margin-top: 2rem;
}

.mt-pager a,
.mt-pager span {
  min-width: 2rem;
  padding: 0.3rem 0.6rem;
  border-radius: 6px;
  text-align: center;
  text-decoration: none;
  color: var(--mt-fg);
}

.mt-current {
  background: var(--mt-fg);
  color: var(--mt-bg) !important;
}
`
