package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// diffContext is the number of unchanged lines shown around each hunk.
const diffContext = 3

// Drift compares the artifact at path with a freshly built encoding. It
// returns a unified diff and whether they differ. A missing artifact counts as
// changed. JSON inputs are indented before diffing so hunks are per field.
func Drift(path string, fresh []byte) (string, bool, error) {
	existing, err := ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		existing = nil
	} else if err != nil {
		return "", false, fmt.Errorf("read existing artifact: %w", err)
	}
	if string(existing) == string(fresh) {
		return "", false, nil
	}

	name := filepath.Base(path)
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(pretty(existing)),
		B:        splitLinesKeepNL(pretty(fresh)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  diffContext,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return "", true, fmt.Errorf("diff %s: %w", name, err)
	}
	return s, true, nil
}

func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func pretty(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}
