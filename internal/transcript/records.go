package transcript

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgallion1/gspan/internal/authors"
)

// Status is the lifecycle state of a transcript document.
type Status string

const (
	StatusLive  Status = "live"
	StatusEnded Status = "ended"
	StatusAfter Status = "after"
)

// RecordType tags each record in the output.
type RecordType string

const (
	TypeSpeaker    RecordType = "speaker"
	TypeSoundbite  RecordType = "soundbite"
	TypeOther      RecordType = "other"
	TypeAnnotation RecordType = "annotation"
)

// Record is one entry of Document.Contents: a *TranscriptRecord or an
// *AnnotationRecord.
type Record interface {
	Kind() RecordType
}

// Context holds the structured fields of a transcript record.
type Context interface {
	context()
}

// SpeakerContext is the context of a speaker record.
type SpeakerContext struct {
	SpeakerClass   string  `json:"speaker_class"`
	Speaker        string  `json:"speaker"`
	Timestamp      *string `json:"timestamp"`
	TranscriptText string  `json:"transcript_text"`
}

// SoundbiteContext is the context of a soundbite record.
type SoundbiteContext struct {
	Soundbite string `json:"soundbite"`
}

// TextContext is the context of any other transcript block.
type TextContext struct {
	Text string `json:"text"`
}

func (SpeakerContext) context()   {}
func (SoundbiteContext) context() {}
func (TextContext) context()      {}

// TranscriptRecord is a classified block outside any annotation. Context is
// nil when the block was detected as a speaker or soundbite but its fields
// could not be captured.
type TranscriptRecord struct {
	Type      RecordType `json:"type"`
	Context   Context    `json:"context"`
	Published bool       `json:"published"`
}

func (r *TranscriptRecord) Kind() RecordType { return r.Type }

// AnnotationRecord is an editorial annotation with its frontmatter.
type AnnotationRecord struct {
	Metadata Metadata   `json:"metadata"`
	Contents string     `json:"contents"`
	Type     RecordType `json:"type"`

	// Terminated is false when the annotation ran to the end of the document
	// without an end marker.
	Terminated bool `json:"-"`
}

func (r *AnnotationRecord) Kind() RecordType { return TypeAnnotation }

// Metadata is annotation frontmatter. The recognized keys carry typed values;
// every other key is kept verbatim in Fields.
type Metadata struct {
	Published *bool
	Author    *authors.Resolved
	Fields    map[string]string
}

// IsPublished reports whether the annotation is marked published.
func (m Metadata) IsPublished() bool {
	return m.Published != nil && *m.Published
}

// Get returns a pass-through field.
func (m Metadata) Get(key string) (string, bool) {
	v, ok := m.Fields[key]
	return v, ok
}

// Len returns the number of metadata keys.
func (m Metadata) Len() int {
	n := len(m.Fields)
	if m.Published != nil {
		n++
	}
	if m.Author != nil {
		n++
	}
	return n
}

// MarshalJSON flattens the recognized keys and Fields into one object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, m.Len())
	for k, v := range m.Fields {
		out[k] = v
	}
	if m.Published != nil {
		out["published"] = *m.Published
	}
	if m.Author != nil {
		out["author"] = *m.Author
	}
	return json.Marshal(out)
}

// Diagnostic records a non-fatal problem met while parsing.
type Diagnostic struct {
	Stage   string
	Message string
	Text    string
}

func (d Diagnostic) String() string {
	if d.Text == "" {
		return fmt.Sprintf("%s: %s", d.Stage, d.Message)
	}
	return fmt.Sprintf("%s: %s: %q", d.Stage, d.Message, d.Text)
}

// Document is the structured result of one parse.
type Document struct {
	Status   Status   `json:"status"`
	Contents []Record `json:"contents"`

	Diagnostics []Diagnostic `json:"-"`
}

// Count returns how many records of the given type the document holds.
func (d *Document) Count(t RecordType) int {
	n := 0
	for _, r := range d.Contents {
		if r.Kind() == t {
			n++
		}
	}
	return n
}

// WriteJSON encodes the document as UTF-8 JSON. Markup characters are not
// escaped.
func (d *Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}
