package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/ihya/internal/corpus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles hand-transcribed translations kept as Markdown.
// Every top-level block with text (paragraph, heading, quote, list) is one
// translated block.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) ([]corpus.TranslatedBlock, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var texts []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		t := extractText(n, src)
		if t != "" {
			texts = append(texts, strings.Join(strings.Fields(t), " "))
		}
	}
	return toBlocks(texts), nil
}

// extractText gets the text content of a goldmark AST node. Leaf blocks
// (code, raw HTML) contribute their source lines; everything else contributes
// its inline text so paragraph content is not read twice.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if c.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(extractText(c, src))
	}
	return strings.TrimSpace(buf.String())
}
