package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
)

// MarkdownLoader handles Markdown transcripts. An optional YAML header at the
// top of the file supplies the title; every other non-blank line is rendered
// with goldmark as its own block.
type MarkdownLoader struct{}

type markdownHeader struct {
	Title string `yaml:"title"`
}

func (l *MarkdownLoader) Load(r io.Reader, filename string) (*Source, error) {
	var header markdownHeader
	body, err := frontmatter.Parse(r, &header)
	if err != nil {
		return nil, fmt.Errorf("parse markdown header: %w", err)
	}

	md := goldmark.New()
	render := func(line string) (string, error) {
		var buf bytes.Buffer
		if err := md.Convert([]byte(line), &buf); err != nil {
			return "", fmt.Errorf("render markdown: %w", err)
		}
		return strings.TrimSpace(buf.String()), nil
	}

	markup, err := lineBlocks(strings.Split(string(body), "\n"), render)
	if err != nil {
		return nil, err
	}

	src := &Source{Title: trimExt(filename), Markup: markup}
	if header.Title != "" {
		src.Title = header.Title
	}
	return src, nil
}
