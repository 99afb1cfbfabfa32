package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func TestWriteReadJSON(t *testing.T) {
	for _, name := range []string{"out.json", "out.json.xz"} {
		path := filepath.Join(t.TempDir(), "nested", name)
		in := []sample{{Name: "a", Text: "بسم الله <&>"}}
		if err := WriteJSON(path, in); err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}

		var out []sample
		if err := ReadJSON(path, &out); err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if len(out) != 1 || out[0] != in[0] {
			t.Errorf("%s: expected %+v, got %+v", name, in, out)
		}

		entries, _ := os.ReadDir(filepath.Dir(path))
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".tmp-") {
				t.Errorf("%s: temp file left behind: %s", name, e.Name())
			}
		}
	}
}

func TestWriteJSON_Unescaped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteJSON(path, sample{Text: "بسم <x>"}); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"name":"","text":"بسم <x>"}`+"\n" {
		t.Errorf("unexpected encoding: %s", raw)
	}
}

func TestWriteJSON_Compressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json.xz")
	if err := WriteJSON(path, sample{Name: "x"}); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "\xfd7zXZ") {
		t.Errorf("expected xz magic, got %q", raw[:6])
	}
}

func TestReadJSON_Missing(t *testing.T) {
	var v any
	if err := ReadJSON(filepath.Join(t.TempDir(), "none.json"), &v); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestManifestPath(t *testing.T) {
	tests := map[string]string{
		"data/citation_index.json":    "data/citation_index.manifest.json",
		"data/citation_index.json.xz": "data/citation_index.manifest.json",
		"index":                       "index.manifest.json",
	}
	for in, want := range tests {
		if got := ManifestPath(in); got != want {
			t.Errorf("ManifestPath(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestDrift(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")

	_, changed, err := Drift(path, []byte(`{"a":1}`))
	if err != nil || !changed {
		t.Fatalf("expected missing artifact to count as changed, got %v, %v", changed, err)
	}

	if err := WriteFile(path, []byte(`{"a":1,"b":[1,2]}`)); err != nil {
		t.Fatal(err)
	}
	diff, changed, err := Drift(path, []byte(`{"a":1,"b":[1,2]}`))
	if err != nil || changed || diff != "" {
		t.Fatalf("expected no drift, got %v %q %v", changed, diff, err)
	}

	diff, changed, err = Drift(path, []byte(`{"a":1,"b":[1,3]}`))
	if err != nil || !changed {
		t.Fatalf("expected drift, got %v, %v", changed, err)
	}
	if !strings.Contains(diff, "-    2") || !strings.Contains(diff, "+    3") {
		t.Errorf("expected per-field hunk, got:\n%s", diff)
	}
	if !strings.Contains(diff, "--- a/index.json") {
		t.Errorf("expected file header, got:\n%s", diff)
	}
}
