// Package authors resolves annotation author identifiers against a directory.
package authors

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultName is substituted when an author cannot be resolved.
const DefaultName = "POLITICO"

// Author is a directory record. Every record carries at least an "email" key;
// all other fields are passed through unchanged.
type Author map[string]any

// Email returns the record's email field.
func (a Author) Email() string {
	s, _ := a["email"].(string)
	return s
}

// Resolved is the outcome of a lookup: either a directory record or the
// fallback value.
type Resolved struct {
	Record  Author
	Default string
}

// IsDefault reports whether the lookup fell back to the default.
func (r Resolved) IsDefault() bool {
	return r.Record == nil
}

// Name returns a display name for the author.
func (r Resolved) Name() string {
	if r.Record == nil {
		return r.Default
	}
	if s, ok := r.Record["name"].(string); ok && s != "" {
		return s
	}
	return r.Record.Email()
}

// MarshalJSON emits the full record, or the default as a bare string.
func (r Resolved) MarshalJSON() ([]byte, error) {
	if r.Record == nil {
		return json.Marshal(r.Default)
	}
	return json.Marshal(map[string]any(r.Record))
}

// Directory is an ordered collection of author records.
type Directory struct {
	entries  []Author
	fallback string
}

// NewDirectory returns a Directory over entries. An empty fallback uses DefaultName.
func NewDirectory(entries []Author, fallback string) *Directory {
	if fallback == "" {
		fallback = DefaultName
	}
	return &Directory{entries: entries, fallback: fallback}
}

// Len returns the number of records.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Fallback returns the default substituted on a miss.
func (d *Directory) Fallback() string {
	if d == nil {
		return DefaultName
	}
	return d.fallback
}

// Resolve looks up value in the directory. A nil directory always yields the
// default.
func (d *Directory) Resolve(value string) Resolved {
	if d == nil {
		return Resolved{Default: DefaultName}
	}
	return Resolve(d.entries, value, d.fallback)
}

var parenIdentifier = regexp.MustCompile(`^.*\((.+)\)\s*$`)

// Resolve returns the first record whose email equals value. Values written
// as "Name (email)" are matched on the parenthesised part. A miss, or an
// empty directory, returns fallback; it is never an error.
func Resolve(entries []Author, value, fallback string) Resolved {
	key := strings.TrimSpace(value)
	if m := parenIdentifier.FindStringSubmatch(key); m != nil {
		key = strings.TrimSpace(m[1])
	}
	for _, a := range entries {
		if a.Email() == key {
			return Resolved{Record: a}
		}
	}
	return Resolved{Default: fallback}
}

// Load reads an author directory file. The file holds a YAML (or JSON) list of
// records; records without an email are rejected.
func Load(path string) ([]Author, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read author directory: %w", err)
	}
	return Parse(data)
}

// Parse decodes author records from YAML or JSON bytes.
func Parse(data []byte) ([]Author, error) {
	var entries []Author
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode author directory: %w", err)
	}
	for i, a := range entries {
		if a.Email() == "" {
			return nil, fmt.Errorf("author directory entry %d: missing email", i)
		}
	}
	return entries, nil
}
