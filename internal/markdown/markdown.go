// Package markdown converts HTML fragments to markdown text.
package markdown

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// Mode selects how converter output is post-processed.
type Mode int

const (
	// Block keeps line structure.
	Block Mode = iota
	// Flat collapses every line break to a single space for one-line display fields.
	Flat
)

// Converter wraps an HTML to markdown converter. Output is never wrapped to a
// fixed line width.
type Converter struct {
	conv *converter.Converter
	mode Mode
}

// New returns a Converter using the given mode.
func New(mode Mode) *Converter {
	return &Converter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		mode: mode,
	}
}

// Mode reports the post-processing mode.
func (c *Converter) Mode() Mode {
	return c.mode
}

// Convert turns an HTML fragment into markdown.
func (c *Converter) Convert(fragment string) (string, error) {
	out, err := c.conv.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return Normalize(out, c.mode), nil
}

var flattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Normalize strips exactly one leading blank line from converter output and,
// in Flat mode, collapses line breaks into spaces.
func Normalize(s string, mode Mode) string {
	if strings.HasPrefix(s, "\n\n") {
		s = s[1:]
	}
	if mode == Flat {
		s = flattener.Replace(s)
	}
	return s
}
