// Package doctree builds a navigable block tree from exported document markup.
package doctree

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed markup document: ordered body blocks plus at most one
// separator node used for lifecycle detection.
type Document struct {
	root      *html.Node
	body      *html.Node
	separator *html.Node
}

// Node is a single block-level unit of a Document.
type Node struct {
	n *html.Node
}

// Build parses markup into a Document.
//
// The separator is the first <hr> in the body. HTML5 parsing makes <hr> a void
// element, so every sibling that follows it is adopted as one of its children:
// removing the separator drops everything below the line and unwrapping it
// splices that content back in place.
func Build(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	body := findElement(root, atom.Body)
	if body == nil {
		return nil, fmt.Errorf("parse html: no body element")
	}

	doc := &Document{root: root, body: body}
	if hr := findElement(body, atom.Hr); hr != nil {
		adoptFollowing(hr)
		doc.separator = hr
	}
	return doc, nil
}

// Body returns the top-level body blocks in source order. Comments and
// whitespace-only text between blocks are skipped.
func (d *Document) Body() []*Node {
	var out []*Node
	for c := d.body.FirstChild; c != nil; c = c.NextSibling {
		if isBlank(c) {
			continue
		}
		out = append(out, &Node{n: c})
	}
	return out
}

// Separator returns the separator node, or nil when the document has none or
// it has already been removed or unwrapped.
func (d *Document) Separator() *Node {
	if d.separator == nil || d.separator.Parent == nil {
		return nil
	}
	return &Node{n: d.separator}
}

// Tag returns the element name, or "" for text nodes.
func (n *Node) Tag() string {
	if n.n.Type != html.ElementNode {
		return ""
	}
	return n.n.Data
}

// Text returns the concatenated text of the node and all its descendants.
func (n *Node) Text() string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(h *html.Node) {
		if h.Type == html.TextNode {
			sb.WriteString(h.Data)
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n.n)
	return sb.String()
}

// StringValue returns the node's single direct string: a text node's data, or
// the string of an only child, recursively. ok is false when the node has zero
// or several children.
func (n *Node) StringValue() (string, bool) {
	h := n.n
	for {
		if h.Type == html.TextNode {
			return h.Data, true
		}
		if h.FirstChild == nil || h.FirstChild != h.LastChild {
			return "", false
		}
		h = h.FirstChild
	}
}

// Markup renders the node back to its serialized HTML.
func (n *Node) Markup() (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n.n); err != nil {
		return "", fmt.Errorf("render %s: %w", n.describe(), err)
	}
	return sb.String(), nil
}

// Children returns the direct children of the node, text nodes included.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.CommentNode {
			continue
		}
		out = append(out, &Node{n: c})
	}
	return out
}

// FindAll returns every descendant element with the given tag name in
// document order.
func (n *Node) FindAll(tag string) []*Node {
	var out []*Node
	var walk func(*html.Node)
	walk = func(h *html.Node) {
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				out = append(out, &Node{n: c})
			}
			walk(c)
		}
	}
	walk(n.n)
	return out
}

// Remove detaches the node, and everything beneath it, from the tree.
func (n *Node) Remove() {
	if n.n.Parent != nil {
		n.n.Parent.RemoveChild(n.n)
	}
}

// Unwrap replaces the node with its children, preserving their order.
func (n *Node) Unwrap() {
	parent := n.n.Parent
	if parent == nil {
		return
	}
	for c := n.n.FirstChild; c != nil; {
		next := c.NextSibling
		n.n.RemoveChild(c)
		parent.InsertBefore(c, n.n)
		c = next
	}
	parent.RemoveChild(n.n)
}

func (n *Node) describe() string {
	if tag := n.Tag(); tag != "" {
		return "<" + tag + ">"
	}
	return "text node"
}

func adoptFollowing(h *html.Node) {
	for s := h.NextSibling; s != nil; {
		next := s.NextSibling
		h.Parent.RemoveChild(s)
		h.AppendChild(s)
		s = next
	}
}

func isBlank(h *html.Node) bool {
	switch h.Type {
	case html.CommentNode, html.DoctypeNode:
		return true
	case html.TextNode:
		return strings.TrimSpace(h.Data) == ""
	}
	return false
}

func findElement(h *html.Node, a atom.Atom) *html.Node {
	if h.Type == html.ElementNode && h.DataAtom == a {
		return h
	}
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
