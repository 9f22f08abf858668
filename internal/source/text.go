package source

import (
	"bufio"
	"fmt"
	"io"
)

// TextLoader handles plain text files. Each non-blank line is one block.
type TextLoader struct{}

func (l *TextLoader) Load(r io.Reader, filename string) (*Source, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	markup, err := lineBlocks(lines, nil)
	if err != nil {
		return nil, err
	}
	return &Source{Title: trimExt(filename), Markup: markup}, nil
}
