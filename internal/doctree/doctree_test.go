package doctree

import (
	"strings"
	"testing"
)

func bodyTexts(doc *Document) []string {
	var out []string
	for _, n := range doc.Body() {
		out = append(out, strings.TrimSpace(n.Text()))
	}
	return out
}

func TestBuild_BodyOrderSkipsBlankText(t *testing.T) {
	doc, err := Build("<html><body><p>one</p>\n  <p>two</p><!-- note --><p>three</p></body></html>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := bodyTexts(doc)
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("expected %d blocks, got %d (%q)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("block[%d]: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestBuild_NoSeparator(t *testing.T) {
	doc, err := Build("<p>only</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Separator() != nil {
		t.Error("expected no separator")
	}
}

func TestBuild_SeparatorAdoptsFollowingBlocks(t *testing.T) {
	doc, err := Build("<p>above</p><hr><p>below one</p><p>below two</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sep := doc.Separator()
	if sep == nil {
		t.Fatal("expected separator")
	}
	if len(sep.Children()) != 2 {
		t.Fatalf("expected separator to hold 2 blocks, got %d", len(sep.Children()))
	}
	// Body holds the block above the line plus the separator itself.
	if n := len(doc.Body()); n != 2 {
		t.Fatalf("expected 2 body blocks, got %d", n)
	}
}

func TestNode_UnwrapRestoresOrder(t *testing.T) {
	doc, err := Build("<p>a</p><hr><p>b</p><p>c</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc.Separator().Unwrap()

	if doc.Separator() != nil {
		t.Error("expected separator to be gone after unwrap")
	}
	got := bodyTexts(doc)
	want := []string{"a", "b", "c"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNode_RemoveDropsEverythingBelow(t *testing.T) {
	doc, err := Build("<p>a</p><hr><p>END</p><p>notes</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc.Separator().Remove()

	got := bodyTexts(doc)
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("expected only %q to remain, got %q", "a", got)
	}
}

func TestNode_StringValue(t *testing.T) {
	doc, err := Build(`<p><span>single</span></p><p><span>x</span><span>y</span></p>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	blocks := doc.Body()

	s, ok := blocks[0].StringValue()
	if !ok || s != "single" {
		t.Errorf("expected (%q, true), got (%q, %v)", "single", s, ok)
	}
	if _, ok := blocks[1].StringValue(); ok {
		t.Error("expected no string value for a block with several children")
	}
	if got := blocks[1].Text(); got != "xy" {
		t.Errorf("expected text %q, got %q", "xy", got)
	}
}

func TestNode_Markup(t *testing.T) {
	doc, err := Build(`<p class="c1"><span class="c0">JOHN: hi</span></p>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := doc.Body()[0].Markup()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<p class="c1"><span class="c0">JOHN: hi</span></p>`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNode_FindAll(t *testing.T) {
	doc, err := Build("<p>x</p><hr><div><p>END</p></div><p>y</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ps := doc.Separator().FindAll("p")
	if len(ps) != 2 {
		t.Fatalf("expected 2 paragraphs below the separator, got %d", len(ps))
	}
	if ps[0].Text() != "END" {
		t.Errorf("expected first match %q, got %q", "END", ps[0].Text())
	}
}
