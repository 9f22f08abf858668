package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"
)

// DOCXLoader handles .docx files. Each paragraph becomes a block; heading
// styles map to <hN> and bold or italic runs keep their emphasis.
type DOCXLoader struct{}

func (l *DOCXLoader) Load(r io.Reader, filename string) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		inner := docxParagraphMarkup(para)
		if strings.TrimSpace(inner) == "" {
			continue
		}
		tag := "p"
		if level := docxHeadingLevel(para); level > 0 {
			tag = fmt.Sprintf("h%d", level)
		}
		sb.WriteString("<" + tag + ">" + inner + "</" + tag + ">\n")
	}

	return &Source{Title: trimExt(filename), Markup: sb.String()}, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	var level int
	if _, err := fmt.Sscanf(strings.TrimPrefix(style, "heading"), "%d", &level); err != nil {
		return 0
	}
	if level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxParagraphMarkup(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		var text strings.Builder
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				text.WriteString(t.Text)
			}
		}
		if text.Len() == 0 {
			continue
		}
		s := html.EscapeString(text.String())
		if props := run.RunProperties; props != nil {
			if props.Italic != nil {
				s = "<em>" + s + "</em>"
			}
			if props.Bold != nil {
				s = "<strong>" + s + "</strong>"
			}
		}
		buf.WriteString(s)
	}
	return buf.String()
}
