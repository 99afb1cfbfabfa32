package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Encode renders v as compact UTF-8 JSON without HTML escaping, followed by
// a newline. Non-ASCII text is written as-is.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes v to path atomically. A ".xz" suffix compresses the file.
func WriteJSON(path string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return WriteFile(path, data)
}

// WriteFile writes data to path through a temp file in the same directory
// and renames it into place, so readers never see a partial artifact.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}

	bw := bufio.NewWriter(tmp)
	var w io.Writer = bw
	var xw *xz.Writer
	if isXZ(path) {
		xw, err = xz.NewWriter(bw)
		if err != nil {
			return fail(err)
		}
		w = xw
	}
	if _, err := w.Write(data); err != nil {
		return fail(err)
	}
	if xw != nil {
		if err := xw.Close(); err != nil {
			return fail(err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	_ = os.Chmod(tmpPath, 0o644)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadFile returns the contents of path, decompressing ".xz" files.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if isXZ(path) {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xz %s: %w", filepath.Base(path), err)
		}
		r = xr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// ReadJSON decodes the JSON document at path into v.
func ReadJSON(path string, v any) error {
	data, err := ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func isXZ(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xz")
}

// ManifestPath returns the manifest path that accompanies an index artifact:
// "index.json" and "index.json.xz" both map to "index.manifest.json".
func ManifestPath(indexPath string) string {
	base := indexPath
	if isXZ(base) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + ".manifest.json"
}
