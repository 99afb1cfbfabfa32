package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/ihya/internal/corpus"
)

// TextParser handles plain text translations. Paragraphs are separated by
// blank lines; the lines of a paragraph are joined with single spaces.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]corpus.TranslatedBlock, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, strings.Join(current, " "))
				current = current[:0]
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return toBlocks(paragraphs), nil
}
