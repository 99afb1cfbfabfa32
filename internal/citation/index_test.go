package citation

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func encode(t *testing.T, v any) string {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func occ(doc string, start int) Occurrence {
	return Occurrence{DocumentName: doc, Snippet: "s", Context: "c", Span: Span{Start: start, End: start, LineIndex: -1}}
}

func TestIndex_InsertionOrder(t *testing.T) {
	idx := NewIndex()
	idx.Add("Zumar:3", occ("a", 3))
	idx.Add("Baqarah:1", occ("a", 1))
	idx.Add("Zumar:3", occ("b", 3))

	keys := idx.Keys()
	if len(keys) != 2 || keys[0] != "Zumar:3" || keys[1] != "Baqarah:1" {
		t.Errorf("expected [Zumar:3 Baqarah:1], got %v", keys)
	}
	occs := idx.Occurrences("Zumar:3")
	if len(occs) != 2 || occs[0].DocumentName != "a" || occs[1].DocumentName != "b" {
		t.Errorf("expected occurrences from a then b, got %+v", occs)
	}
	if idx.Total() != 3 {
		t.Errorf("expected 3 occurrences, got %d", idx.Total())
	}
}

func TestIndex_JSONRoundTripKeepsOrder(t *testing.T) {
	idx := NewIndex()
	idx.Add("Zumar:3", occ("a", 3))
	idx.Add("Baqarah:1-4", occ("a", 1))
	idx.Add("الفاتحة:1", Occurrence{DocumentName: "b", Snippet: "<بسم>", Span: Span{LineIndex: 2}})

	s := encode(t, idx)
	if !strings.HasPrefix(s, `{"Zumar:3":[`) {
		t.Errorf("expected first key Zumar:3, got %s", s)
	}
	if strings.Index(s, "Baqarah") > strings.Index(s, "الفاتحة") {
		t.Errorf("expected Baqarah before الفاتحة in %s", s)
	}
	if !strings.Contains(s, `"snippet":"<بسم>"`) {
		t.Errorf("expected unescaped snippet in %s", s)
	}
	if !strings.Contains(s, `"span":{"start":0,"end":0,"word_start":0,"word_end":0,"line_index":2}`) {
		t.Errorf("expected span fields in %s", s)
	}

	var back Index
	if err := json.Unmarshal([]byte(s), &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again := encode(t, &back); again != s {
		t.Errorf("expected identical output after round trip\n got: %s\nwant: %s", again, s)
	}
}

func TestIndex_EmptyJSON(t *testing.T) {
	data, err := json.Marshal(NewIndex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("expected {}, got %s", data)
	}
}

func TestIndex_UnmarshalRejectsArray(t *testing.T) {
	var idx Index
	if err := json.Unmarshal([]byte(`[]`), &idx); err == nil {
		t.Fatal("expected error for non-object index")
	}
}

func TestIndex_Units(t *testing.T) {
	idx := NewIndex()
	idx.Add("Zumar:3", occ("a", 3))
	idx.Add("Baqarah:1", occ("a", 1))
	idx.Add("Zumar:9-10", occ("a", 9))

	units := idx.Units()
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].Unit != "Baqarah" || units[1].Unit != "Zumar" {
		t.Errorf("expected sorted units, got %+v", units)
	}
	if len(units[1].Keys) != 2 || units[1].Keys[1] != "Zumar:9-10" {
		t.Errorf("expected Zumar keys in insertion order, got %v", units[1].Keys)
	}
}
