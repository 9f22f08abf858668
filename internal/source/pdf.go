package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	pdflib "github.com/ledongthuc/pdf"
)

// pdftotextTimeout bounds the external fallback extractor.
const pdftotextTimeout = time.Minute

// PDFLoader extracts page text with ledongthuc/pdf and, when enabled, retries
// with the pdftotext binary if the library fails or finds no text. Each text
// line becomes a block; page breaks are dropped.
type PDFLoader struct {
	FallbackPdftotext bool
}

func (l *PDFLoader) Load(r io.Reader, filename string) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	text, err := pdfPlainText(data)
	if l.FallbackPdftotext && (err != nil || strings.TrimSpace(text) == "") {
		if alt, altErr := pdftotext(data); altErr == nil {
			text, err = alt, nil
		} else if err == nil {
			err = altErr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	markup, err := lineBlocks(strings.Split(strings.ReplaceAll(text, "\f", "\n"), "\n"), nil)
	if err != nil {
		return nil, err
	}
	return &Source{Title: trimExt(filename), Markup: markup}, nil
}

func pdfPlainText(data []byte) (string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}
	if reader.NumPage() > 0 && len(pages) == 0 {
		return "", errors.New("no readable pages")
	}
	return strings.Join(pages, "\f"), nil
}

// pdftotext needs a path, so the document is spooled to a temp file.
func pdftotext(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "gspan-pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pdftotextTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "pdftotext", "-enc", "UTF-8", tmp.Name(), "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
