package transcript

import "github.com/dgallion1/gspan/internal/doctree"

// stripAdministrivia inspects the separator, removes or unwraps it, and
// reports the document status. ended is the label used for the non-live case.
func stripAdministrivia(doc *doctree.Document, ended Status) Status {
	sep := doc.Separator()
	if sep == nil {
		return ended
	}

	for _, p := range sep.FindAll("p") {
		s, ok := p.StringValue()
		if !ok {
			continue
		}
		s = matchText(s)
		if endFactCheckPattern.MatchString(s) || endTranscriptPattern.MatchString(s) {
			sep.Remove()
			return ended
		}
	}

	for _, child := range sep.Children() {
		text, ok := child.StringValue()
		if !ok || text == "" {
			text = child.Text()
		}
		if doNotWritePattern.MatchString(matchText(text)) {
			child.Remove()
		}
	}
	sep.Unwrap()
	return StatusLive
}
