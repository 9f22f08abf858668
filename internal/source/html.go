package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLLoader handles exported HTML documents.
type HTMLLoader struct {
	Sanitize bool
}

func (l *HTMLLoader) Load(r io.Reader, filename string) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}

	src := &Source{Title: trimExt(filename), Markup: string(data)}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if title := findTitle(doc); title != "" {
		src.Title = title
	}

	if l.Sanitize {
		src.Markup = exportPolicy().Sanitize(src.Markup)
	}
	return src, nil
}

// exportPolicy keeps the block and inline structure the transcript
// conventions rely on and drops styling, scripts and document chrome.
func exportPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "div", "span", "hr", "br",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"strong", "b", "em", "i", "u", "s", "sup", "sub",
		"ul", "ol", "li", "blockquote",
		"table", "thead", "tbody", "tr", "td", "th",
	)
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	return p
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
