package transcript

import (
	"fmt"

	"github.com/dgallion1/gspan/internal/doctree"
)

// Segment is a TranscriptSegment or an AnnotationSpan.
type Segment interface {
	segment()
}

// TranscriptSegment is a single body block outside any annotation.
type TranscriptSegment struct {
	Content *doctree.Node
}

// AnnotationSpan holds the blocks between a start marker and its end marker.
type AnnotationSpan struct {
	Contents   []*doctree.Node
	Terminated bool
}

func (TranscriptSegment) segment() {}
func (AnnotationSpan) segment()    {}

type segmentState int

const (
	stateOutside segmentState = iota
	stateInside
)

// segmenter partitions body blocks into segments. Marker blocks are consumed
// and never stored.
type segmenter struct {
	state   segmentState
	pending []*doctree.Node
	out     []Segment
	diags   []Diagnostic
}

func (s *segmenter) feed(block *doctree.Node) {
	text := matchText(block.Text())

	switch {
	case annotationStartPattern.MatchString(text):
		if s.state == stateInside {
			s.diags = append(s.diags, Diagnostic{
				Stage:   "segment",
				Message: fmt.Sprintf("start marker inside open annotation, discarding %d blocks", len(s.pending)),
			})
		}
		s.state = stateInside
		s.pending = nil
		return
	case s.state == stateInside && annotationEndPattern.MatchString(text):
		s.out = append(s.out, AnnotationSpan{Contents: s.pending, Terminated: true})
		s.state = stateOutside
		s.pending = nil
		return
	}

	// An end marker with no open annotation falls through as ordinary content.
	if s.state == stateInside {
		s.pending = append(s.pending, block)
		return
	}
	s.out = append(s.out, TranscriptSegment{Content: block})
}

func (s *segmenter) finish() {
	if s.state != stateInside {
		return
	}
	s.diags = append(s.diags, Diagnostic{
		Stage:   "segment",
		Message: fmt.Sprintf("annotation has no end marker, absorbed %d trailing blocks", len(s.pending)),
	})
	s.out = append(s.out, AnnotationSpan{Contents: s.pending, Terminated: false})
	s.state = stateOutside
	s.pending = nil
}

// segmentBlocks runs the segmenter over blocks in order.
func segmentBlocks(blocks []*doctree.Node) ([]Segment, []Diagnostic) {
	s := &segmenter{}
	for _, b := range blocks {
		s.feed(b)
	}
	s.finish()
	return s.out, s.diags
}
