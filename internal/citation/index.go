package citation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Index maps citation keys to their occurrences. Keys keep their first
// insertion order and each key's occurrences keep append order, so an index
// built from the same documents in the same order serializes identically.
type Index struct {
	order   []string
	entries map[string][]Occurrence
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string][]Occurrence)}
}

// Add appends occ under key, creating the entry if absent.
func (x *Index) Add(key string, occ Occurrence) {
	if x.entries == nil {
		x.entries = make(map[string][]Occurrence)
	}
	if _, ok := x.entries[key]; !ok {
		x.order = append(x.order, key)
	}
	x.entries[key] = append(x.entries[key], occ)
}

// Len returns the number of distinct keys.
func (x *Index) Len() int { return len(x.order) }

// Keys returns the keys in insertion order.
func (x *Index) Keys() []string {
	return append([]string(nil), x.order...)
}

// Occurrences returns the occurrences recorded for key.
func (x *Index) Occurrences(key string) []Occurrence {
	return x.entries[key]
}

// Total returns the number of occurrences across all keys.
func (x *Index) Total() int {
	n := 0
	for _, occs := range x.entries {
		n += len(occs)
	}
	return n
}

// Units groups keys by unit name. Keys that do not parse are grouped under
// their full text. Each group keeps insertion order; unit names are sorted.
func (x *Index) Units() []UnitKeys {
	groups := make(map[string][]string)
	for _, key := range x.order {
		unit := key
		if k, err := ParseKey(key); err == nil {
			unit = k.Unit
		}
		groups[unit] = append(groups[unit], key)
	}
	units := make([]UnitKeys, 0, len(groups))
	for unit, keys := range groups {
		units = append(units, UnitKeys{Unit: unit, Keys: keys})
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Unit < units[j].Unit })
	return units
}

// UnitKeys lists the citation keys found for one unit.
type UnitKeys struct {
	Unit string   `json:"unit"`
	Keys []string `json:"keys"`
}

// MarshalJSON writes the index as a JSON object in key insertion order.
func (x *Index) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	var out bytes.Buffer
	out.WriteByte('{')
	for i, key := range x.order {
		if i > 0 {
			out.WriteByte(',')
		}
		buf.Reset()
		if err := enc.Encode(key); err != nil {
			return nil, fmt.Errorf("encode key %q: %w", key, err)
		}
		out.Write(bytes.TrimRight(buf.Bytes(), "\n"))
		out.WriteByte(':')
		buf.Reset()
		if err := enc.Encode(x.entries[key]); err != nil {
			return nil, fmt.Errorf("encode occurrences for %q: %w", key, err)
		}
		out.Write(bytes.TrimRight(buf.Bytes(), "\n"))
	}
	out.WriteByte('}')
	return out.Bytes(), nil
}

// UnmarshalJSON reads an index object, keeping the key order of the input.
func (x *Index) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decode index: expected object, got %v", tok)
	}

	*x = Index{entries: make(map[string][]Occurrence)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode index key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decode index: expected string key, got %v", tok)
		}
		var occs []Occurrence
		if err := dec.Decode(&occs); err != nil {
			return fmt.Errorf("decode occurrences for %q: %w", key, err)
		}
		if _, seen := x.entries[key]; !seen {
			x.order = append(x.order, key)
		}
		x.entries[key] = append(x.entries[key], occs...)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	return nil
}
