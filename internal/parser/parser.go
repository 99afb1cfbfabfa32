package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/ihya/internal/corpus"
)

// Parser extracts ordered translated blocks from a translated document.
type Parser interface {
	Parse(r io.Reader, filename string) ([]corpus.TranslatedBlock, error)
}

// SupportedExtensions lists translated file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
}

// minBlockRunes is the length a block must exceed to survive HTML cleanup.
// Shorter fragments are navigation links, page numbers and the like.
const minBlockRunes = 20

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ParseFile opens path and extracts its blocks with the parser for its extension.
func ParseFile(path string) ([]corpus.TranslatedBlock, error) {
	p, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open translated file: %w", err)
	}
	defer f.Close()

	blocks, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return blocks, nil
}

// toBlocks indexes non-empty texts in order.
func toBlocks(texts []string) []corpus.TranslatedBlock {
	var blocks []corpus.TranslatedBlock
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		blocks = append(blocks, corpus.TranslatedBlock{Index: len(blocks), Text: t})
	}
	return blocks
}

func longEnough(s string) bool {
	return utf8.RuneCountInString(s) > minBlockRunes
}
