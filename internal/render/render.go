// Package render produces an HTML publishing preview of a parsed transcript.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/gspan/internal/transcript"
)

// Renderer turns record markdown back into HTML with goldmark.
type Renderer struct {
	md goldmark.Markdown
}

func New() *Renderer {
	return &Renderer{
		md: goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough)),
	}
}

type field struct {
	Key   string
	Value string
}

type item struct {
	Kind      string
	Class     string
	Speaker   string
	Timestamp string
	Body      template.HTML
	Published bool
	Author    string
	Fields    []field
	Open      bool
}

type page struct {
	Title  string
	Status string
	Items  []item
}

// Render writes a standalone HTML page for doc.
func (r *Renderer) Render(w io.Writer, title string, doc *transcript.Document) error {
	p := page{Title: title, Status: string(doc.Status)}
	for i, rec := range doc.Contents {
		it, err := r.item(rec)
		if err != nil {
			return fmt.Errorf("render record %d: %w", i, err)
		}
		p.Items = append(p.Items, it)
	}
	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

func (r *Renderer) item(rec transcript.Record) (item, error) {
	switch rec := rec.(type) {
	case *transcript.AnnotationRecord:
		body, err := r.markdown(rec.Contents)
		if err != nil {
			return item{}, err
		}
		it := item{
			Kind:      "annotation",
			Body:      body,
			Published: rec.Metadata.IsPublished(),
			Open:      !rec.Terminated,
		}
		if rec.Metadata.Author != nil {
			it.Author = rec.Metadata.Author.Name()
		}
		for k, v := range rec.Metadata.Fields {
			it.Fields = append(it.Fields, field{Key: k, Value: v})
		}
		sort.Slice(it.Fields, func(i, j int) bool { return it.Fields[i].Key < it.Fields[j].Key })
		return it, nil

	case *transcript.TranscriptRecord:
		it := item{Kind: string(rec.Type)}
		var text string
		switch ctx := rec.Context.(type) {
		case transcript.SpeakerContext:
			it.Class = ctx.SpeakerClass
			it.Speaker = ctx.Speaker
			if ctx.Timestamp != nil {
				it.Timestamp = *ctx.Timestamp
			}
			text = ctx.TranscriptText
		case transcript.SoundbiteContext:
			text = ctx.Soundbite
		case transcript.TextContext:
			text = ctx.Text
		}
		body, err := r.markdown(text)
		if err != nil {
			return item{}, err
		}
		it.Body = body
		return it, nil
	}
	return item{}, fmt.Errorf("unknown record %T", rec)
}

// markdown renders s with goldmark. Raw HTML in s is not passed through.
func (r *Renderer) markdown(s string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(s), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:Georgia,serif;max-width:46rem;margin:2rem auto;padding:0 1rem;line-height:1.5}
.status{text-transform:uppercase;font:bold .8rem sans-serif;letter-spacing:.05em}
.status-live{color:#c00}
.speaker h3{font:bold 1rem sans-serif;margin:1.2rem 0 .2rem}
.speaker time{font-weight:normal;color:#666}
.soundbite{font-style:italic;color:#555}
.annotation{border-left:4px solid #2a6;background:#f4faf6;padding:.5rem 1rem;margin:1rem 0}
.annotation.draft{border-color:#c90;background:#fffaf0}
.annotation dl{font:.8rem sans-serif;color:#555;margin:0}
.annotation dt{display:inline;font-weight:bold}
.annotation dd{display:inline;margin:0 1rem 0 .25rem}
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<p class="status status-{{.Status}}">{{.Status}}</p>
</header>
<main>
{{- range .Items}}
{{- if eq .Kind "annotation"}}
<aside class="annotation{{if not .Published}} draft{{end}}">
<dl>
{{- if .Author}}<dt>author</dt><dd>{{.Author}}</dd>{{end}}
<dt>published</dt><dd>{{if .Published}}yes{{else}}no{{end}}</dd>
{{- range .Fields}}<dt>{{.Key}}</dt><dd>{{.Value}}</dd>{{end}}
{{- if .Open}}<dt>unterminated</dt><dd>yes</dd>{{end}}
</dl>
{{.Body}}
</aside>
{{- else if eq .Kind "speaker"}}
<section class="speaker speaker-{{.Class}}">
<h3>{{.Speaker}}{{if .Timestamp}} <time>[{{.Timestamp}}]</time>{{end}}</h3>
{{.Body}}
</section>
{{- else if eq .Kind "soundbite"}}
<section class="soundbite">
{{.Body}}
</section>
{{- else}}
<section class="other">
{{.Body}}
</section>
{{- end}}
{{- end}}
</main>
</body>
</html>
`))
