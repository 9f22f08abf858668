package transcript

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Lifecycle markers found near the separator.
var (
	endTranscriptPattern = regexp.MustCompile(`LIVE\sTRANSCRIPT\sHAS\sENDED`)
	endFactCheckPattern  = regexp.MustCompile(`^\s*[Ee][Nn][Dd]\s*$`)
	doNotWritePattern    = regexp.MustCompile(`^.*DO\s*NOT\s*WRITE\s*BELOW\s*THIS\s*LINE`)
)

// Annotation fences and frontmatter.
var (
	annotationStartPattern = regexp.MustCompile(`^\s*\+{50,}\s*$`)
	annotationEndPattern   = regexp.MustCompile(`^\s*-{50,}\s*$`)
	frontmatterPattern     = regexp.MustCompile(`^\s*-{3}\s*$`)
	metadataLinePattern    = regexp.MustCompile(`^(.*?):(.*)$`)
)

// Transcript block classification. The detection patterns run against plain
// text; the field patterns run against the block's markup.
var (
	speakerPattern         = regexp.MustCompile(`^[A-Z\s.-]+(\s\[.*\])?:`)
	soundbitePattern       = regexp.MustCompile(`^\s*:`)
	speakerFieldsPattern   = regexp.MustCompile(`^\s*(<.*?>)?([A-Z0-9\s.-]+)\s*(?:\[(.*)\]\s*)?:\s*(.*)`)
	soundbiteFieldsPattern = regexp.MustCompile(`^\s*(?:<.*?>)?\s*:\s*\[\((.*)\)\]`)
)

// matchText folds compatibility characters (non-breaking spaces in
// particular) so the ASCII \s classes above see them as whitespace.
func matchText(s string) string {
	return norm.NFKC.String(s)
}

var markupSpaces = strings.NewReplacer("&nbsp;", " ", "\u00a0", " ")

// matchMarkup applies the same folding to serialized markup, where the
// renderer may spell non-breaking spaces as entities. Detection and field
// capture must see the same characters.
func matchMarkup(s string) string {
	return norm.NFKC.String(markupSpaces.Replace(s))
}
