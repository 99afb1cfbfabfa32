package corpus

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// ErrNoLines is returned when a source document contains no non-empty lines.
var ErrNoLines = errors.New("no source lines")

// SourceLine is one trimmed, non-empty line of source-language text.
type SourceLine struct {
	Index int    // 0-based position among the non-empty lines
	Text  string // Trimmed line text
}

// TranslatedBlock is one unit of translated text, typically a paragraph.
type TranslatedBlock struct {
	Index int
	Text  string
}

// Document is a named source-language text.
type Document struct {
	Name  string
	Lines []SourceLine
}

// LoadLines reads r and returns its non-empty lines, trimmed and indexed in order.
func LoadLines(r io.Reader) ([]SourceLine, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var lines []SourceLine
	for scanner.Scan() {
		t := strings.TrimSpace(scanner.Text())
		if t == "" {
			continue
		}
		lines = append(lines, SourceLine{Index: len(lines), Text: t})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return lines, nil
}

// LoadDocument reads a source text file. The document name is the file stem.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	lines, err := LoadLines(f)
	if err != nil {
		return nil, err
	}
	return &Document{Name: Stem(path), Lines: lines}, nil
}

// LoadDocuments loads every *.txt file in dir. Files that fail to load are
// returned in failed rather than aborting the whole directory.
func LoadDocuments(dir string) (docs []*Document, failed map[string]error, err error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, nil, fmt.Errorf("glob documents: %w", err)
	}
	failed = make(map[string]error)
	for _, p := range paths {
		doc, err := LoadDocument(p)
		if err != nil {
			failed[Stem(p)] = err
			continue
		}
		docs = append(docs, doc)
	}
	return docs, failed, nil
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Text joins the document lines with newlines.
func (d *Document) Text() string {
	var sb strings.Builder
	for i, l := range d.Lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.Text)
	}
	return sb.String()
}

// Words is the flat token sequence of the document. It equals Tokenize(d.Text()).
func (d *Document) Words() []string {
	var words []string
	for _, l := range d.Lines {
		words = append(words, Tokenize(l.Text)...)
	}
	return words
}

// Digest returns the hex BLAKE3 digest of the document text.
func (d *Document) Digest() string {
	sum := blake3.Sum256([]byte(d.Text()))
	return hex.EncodeToString(sum[:])
}
