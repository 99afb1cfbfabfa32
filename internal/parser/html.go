package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/ihya/internal/corpus"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML pages of translated text.
//
// Pages with more than five <p> elements yield one block per paragraph.
// Older pages that lay text out with <br> or bare text nodes fall back to one
// block per text line. In both cases fragments of 20 runes or fewer are dropped.
type HTMLParser struct{}

// paragraphThreshold is the <p> count above which paragraphs are trusted as blocks.
const paragraphThreshold = 5

func (p *HTMLParser) Parse(r io.Reader, filename string) ([]corpus.TranslatedBlock, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var paragraphs []string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipElement(n.Data) {
				return
			}
			if n.Data == "p" {
				paragraphs = append(paragraphs, textContent(n, " "))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(doc)

	var texts []string
	if len(paragraphs) > paragraphThreshold {
		for _, t := range paragraphs {
			if longEnough(t) {
				texts = append(texts, t)
			}
		}
		return toBlocks(texts), nil
	}

	for _, line := range strings.Split(textContent(doc, "\n"), "\n") {
		line = strings.TrimSpace(line)
		if longEnough(line) {
			texts = append(texts, line)
		}
	}
	return toBlocks(texts), nil
}

func skipElement(tag string) bool {
	switch tag {
	case "script", "style", "head", "title", "meta", "iframe":
		return true
	}
	return false
}

// textContent joins the trimmed, non-empty text nodes under n with sep.
func textContent(n *html.Node, sep string) string {
	var parts []string
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElement(n.Data) {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(parts, sep)
}
