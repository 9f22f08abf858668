// Package transcript turns an exported transcript document, with inline
// editorial annotations, into a structured record for publishing.
//
// A parse runs in fixed stages: the separator near the end of the document is
// inspected to decide whether the transcript is live, the body is segmented
// into transcript blocks and annotation spans, and each segment is then
// classified (speaker, soundbite, other) or split into frontmatter and body.
package transcript

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/gspan/internal/authors"
	"github.com/dgallion1/gspan/internal/doctree"
	"github.com/dgallion1/gspan/internal/markdown"
)

// Options configures a Parser.
type Options struct {
	// Authors resolves the "author" metadata key. Nil leaves author values as
	// plain strings.
	Authors *authors.Directory

	// SpeakerClasses maps a speaker label to a display class.
	SpeakerClasses map[string]string

	// Mode selects block or flat markdown output.
	Mode markdown.Mode

	// EndedStatus labels documents that are not live. Defaults to StatusEnded.
	EndedStatus Status

	Logger *slog.Logger
}

// Parser converts document markup into a Document. A Parser holds no
// per-document state and may be shared.
type Parser struct {
	conv           *markdown.Converter
	authors        *authors.Directory
	speakerClasses map[string]string
	endedStatus    Status
	log            *slog.Logger
}

// New creates a Parser.
func New(opts Options) *Parser {
	if opts.EndedStatus == "" {
		opts.EndedStatus = StatusEnded
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Parser{
		conv:           markdown.New(opts.Mode),
		authors:        opts.Authors,
		speakerClasses: opts.SpeakerClasses,
		endedStatus:    opts.EndedStatus,
		log:            opts.Logger,
	}
}

// Parse is shorthand for New(opts).Parse(markup).
func Parse(markup string, opts Options) (*Document, error) {
	return New(opts).Parse(markup)
}

// Parse runs the full pipeline over one document. Structural problems are
// reported as Document.Diagnostics; only failures of the tree builder or the
// markdown converter are returned as errors.
func (p *Parser) Parse(markup string) (*Document, error) {
	tree, err := doctree.Build(markup)
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}

	r := &parseRun{p: p, log: p.log}
	doc := &Document{Contents: []Record{}}

	doc.Status = stripAdministrivia(tree, p.endedStatus)

	segments, diags := segmentBlocks(tree.Body())
	for _, d := range diags {
		r.diagnose(d.Stage, d.Message, d.Text)
	}

	for i, seg := range segments {
		switch s := seg.(type) {
		case AnnotationSpan:
			rec, err := r.annotation(s)
			if err != nil {
				return nil, fmt.Errorf("segment %d: annotation: %w", i, err)
			}
			doc.Contents = append(doc.Contents, rec)
		case TranscriptSegment:
			rec, err := r.classify(s.Content)
			if err != nil {
				return nil, fmt.Errorf("segment %d: transcript: %w", i, err)
			}
			doc.Contents = append(doc.Contents, rec)
		}
	}

	doc.Diagnostics = r.diags
	p.log.Debug("parsed document",
		"status", doc.Status,
		"records", len(doc.Contents),
		"annotations", doc.Count(TypeAnnotation),
		"diagnostics", len(doc.Diagnostics),
	)
	return doc, nil
}

// parseRun carries the state of a single Parse call.
type parseRun struct {
	p     *Parser
	log   *slog.Logger
	diags []Diagnostic
}

func (r *parseRun) diagnose(stage, msg, text string) {
	r.diags = append(r.diags, Diagnostic{Stage: stage, Message: msg, Text: text})
	r.log.Warn(msg, "stage", stage, "text", text)
}

func (r *parseRun) annotation(span AnnotationSpan) (*AnnotationRecord, error) {
	meta, body := splitFrontmatter(span.Contents)
	contents, err := r.annotationContents(body)
	if err != nil {
		return nil, err
	}
	return &AnnotationRecord{
		Metadata:   r.metadata(meta),
		Contents:   contents,
		Type:       TypeAnnotation,
		Terminated: span.Terminated,
	}, nil
}
