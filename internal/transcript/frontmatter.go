package transcript

import (
	"strings"

	"github.com/dgallion1/gspan/internal/doctree"
)

// splitFrontmatter routes annotation blocks by the number of "---" delimiters
// seen so far: blocks before the first are dropped, blocks after the first
// are metadata, and blocks after the second are body.
func splitFrontmatter(blocks []*doctree.Node) (meta, body []*doctree.Node) {
	delimiters := 0
	for _, b := range blocks {
		if frontmatterPattern.MatchString(matchText(b.Text())) {
			delimiters++
			continue
		}
		switch delimiters {
		case 0:
		case 1:
			meta = append(meta, b)
		default:
			body = append(body, b)
		}
	}
	return meta, body
}

// parseMetadataLine splits "key: value" on the first colon. The key is
// lower-cased; both sides are trimmed.
func parseMetadataLine(text string) (key, value string, ok bool) {
	m := metadataLinePattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(m[1])), strings.TrimSpace(m[2]), true
}

func (r *parseRun) metadata(blocks []*doctree.Node) Metadata {
	md := Metadata{Fields: map[string]string{}}
	for _, b := range blocks {
		text := b.Text()
		key, value, ok := parseMetadataLine(text)
		if !ok {
			r.diagnose("metadata", "could not parse metadata", text)
			continue
		}

		switch {
		case key == "published":
			published := value == "Yes"
			md.Published = &published
		case key == "author" && r.p.authors != nil:
			resolved := r.p.authors.Resolve(value)
			if resolved.IsDefault() {
				r.log.Debug("author not in directory, using default", "author", value, "default", resolved.Default)
			}
			md.Author = &resolved
		default:
			md.Fields[key] = value
		}
	}
	return md
}

// annotationContents converts the body blocks as one unit so inline
// structure spanning several source blocks survives.
func (r *parseRun) annotationContents(blocks []*doctree.Node) (string, error) {
	var sb strings.Builder
	for _, b := range blocks {
		markup, err := b.Markup()
		if err != nil {
			return "", err
		}
		sb.WriteString(markup)
	}
	return r.p.conv.Convert(sb.String())
}
