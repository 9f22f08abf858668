package transcript

import (
	"strings"

	"github.com/dgallion1/gspan/internal/doctree"
)

// DefaultSpeakerClass is used for speakers missing from the class table.
const DefaultSpeakerClass = "speaker"

// classifyRule pairs a plain-text predicate with the extractor for its type.
// extract reports ok=false when the stricter field pattern does not match.
type classifyRule struct {
	kind    RecordType
	matches func(text string) bool
	extract func(r *parseRun, markup string) (ctx Context, ok bool, err error)
}

// classifyRules are tried in order; the first match wins.
var classifyRules = []classifyRule{
	{kind: TypeSpeaker, matches: speakerPattern.MatchString, extract: (*parseRun).speakerContext},
	{kind: TypeSoundbite, matches: soundbitePattern.MatchString, extract: (*parseRun).soundbiteContext},
	{kind: TypeOther, matches: func(string) bool { return true }, extract: (*parseRun).textContext},
}

func (r *parseRun) classify(block *doctree.Node) (*TranscriptRecord, error) {
	text := matchText(block.Text())
	markup, err := block.Markup()
	if err != nil {
		return nil, err
	}

	for _, rule := range classifyRules {
		if !rule.matches(text) {
			continue
		}
		ctx, ok, err := rule.extract(r, markup)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.diagnose("classify", "could not capture "+string(rule.kind)+" fields", strings.TrimSpace(block.Text()))
			ctx = nil
		}
		return &TranscriptRecord{Type: rule.kind, Context: ctx, Published: true}, nil
	}
	// The last rule always matches.
	return nil, nil
}

func (r *parseRun) speakerContext(markup string) (Context, bool, error) {
	markup = matchMarkup(markup)
	loc := speakerFieldsPattern.FindStringSubmatchIndex(markup)
	if loc == nil {
		return nil, false, nil
	}
	group := func(i int) (string, bool) {
		if loc[2*i] < 0 {
			return "", false
		}
		return markup[loc[2*i]:loc[2*i+1]], true
	}
	prefix, _ := group(1)
	name, _ := group(2)
	rest, _ := group(4)
	speaker := strings.TrimSpace(name)

	class, ok := r.p.speakerClasses[speaker]
	if !ok {
		class = DefaultSpeakerClass
	}

	var timestamp *string
	if stamp, ok := group(3); ok {
		timestamp = &stamp
	}

	text, err := r.p.conv.Convert(prefix + rest)
	if err != nil {
		return nil, false, err
	}
	return SpeakerContext{
		SpeakerClass:   class,
		Speaker:        speaker,
		Timestamp:      timestamp,
		TranscriptText: text,
	}, true, nil
}

func (r *parseRun) soundbiteContext(markup string) (Context, bool, error) {
	m := soundbiteFieldsPattern.FindStringSubmatch(matchMarkup(markup))
	if m == nil {
		return nil, false, nil
	}
	text, err := r.p.conv.Convert("(" + m[1] + ")")
	if err != nil {
		return nil, false, err
	}
	return SoundbiteContext{Soundbite: text}, true, nil
}

func (r *parseRun) textContext(markup string) (Context, bool, error) {
	text, err := r.p.conv.Convert(markup)
	if err != nil {
		return nil, false, err
	}
	return TextContext{Text: text}, true, nil
}
