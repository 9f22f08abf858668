// Package source loads exported transcript files and turns them into HTML
// markup for the document builder.
package source

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Source is a loaded document ready for parsing.
type Source struct {
	Title  string
	Markup string
}

// Loader converts raw file bytes into a Source.
type Loader interface {
	Load(r io.Reader, filename string) (*Source, error)
}

// Options tune the loaders returned by ForFile.
type Options struct {
	// Sanitize strips styling, scripts and unknown elements from HTML input.
	Sanitize bool
	// PDFFallbackPdftotext shells out to pdftotext when the Go reader fails.
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".html":     true,
	".htm":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate loader for a filename.
func ForFile(filename string, opts Options) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".html", ".htm":
		return &HTMLLoader{Sanitize: opts.Sanitize}, nil
	case ".txt":
		return &TextLoader{}, nil
	case ".md", ".markdown":
		return &MarkdownLoader{}, nil
	case ".pdf":
		return &PDFLoader{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func trimExt(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}
