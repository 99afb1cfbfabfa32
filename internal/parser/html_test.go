package parser

import (
	"fmt"
	"strings"
	"testing"
)

func TestHTMLParser_Paragraphs(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><head><title>Ignored title text that is long</title></head><body>")
	b.WriteString("<script>var ignored = 'a very long script body';</script>")
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, "<p>Paragraph number %d has <em>enough</em> words.</p>", i)
	}
	b.WriteString("<p>short</p></body></html>")

	p := &HTMLParser{}
	blocks, err := p.Parse(strings.NewReader(b.String()), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 6 {
		t.Fatalf("expected 6 blocks, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].Text != "Paragraph number 0 has enough words." {
		t.Errorf("unexpected first block %q", blocks[0].Text)
	}
	for _, blk := range blocks {
		if strings.Contains(blk.Text, "script") || strings.Contains(blk.Text, "title") {
			t.Errorf("skipped element leaked into %q", blk.Text)
		}
	}
}

func TestHTMLParser_LineFallback(t *testing.T) {
	input := `<html><body>
<div>The first long line of the old page layout.<br>
tiny<br>
The second long line of the old page layout.</div>
<p>One paragraph is not enough to trust.</p>
</body></html>`

	p := &HTMLParser{}
	blocks, err := p.Parse(strings.NewReader(input), "old.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"The first long line of the old page layout.",
		"The second long line of the old page layout.",
		"One paragraph is not enough to trust.",
	}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d: %+v", len(want), len(blocks), blocks)
	}
	for i, w := range want {
		if blocks[i].Text != w {
			t.Errorf("block %d: expected %q, got %q", i, w, blocks[i].Text)
		}
	}
}
