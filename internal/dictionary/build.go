// Package dictionary builds the sharded Arabic dictionary and answers word
// lookups against it.
package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/ihya/internal/store"
)

// ManifestFile lists the shard keys written by WriteShards.
const ManifestFile = "manifest.json"

// mergeSeparator joins explanations of a headword that appears more than once.
const mergeSeparator = "\n---\n"

// Entry is one record of the raw dictionary export.
type Entry struct {
	Word        string `json:"word"`
	Explanation string `json:"explanation"`
}

// BuildReport counts what Build did with its input.
type BuildReport struct {
	Entries int `json:"entries"`
	Words   int `json:"words"`
	Merged  int `json:"merged"`
	Skipped int `json:"skipped"`
}

// LoadEntries reads a JSON array of entries.
func LoadEntries(path string) ([]Entry, error) {
	var entries []Entry
	if err := store.ReadJSON(path, &entries); err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	return entries, nil
}

// Build maps each trimmed headword to its explanation. Entries without a word
// are skipped; repeated headwords keep every explanation, in input order.
func Build(entries []Entry) (map[string]string, BuildReport) {
	dict := make(map[string]string, len(entries))
	report := BuildReport{Entries: len(entries)}
	for _, e := range entries {
		word := strings.TrimSpace(e.Word)
		if word == "" {
			report.Skipped++
			continue
		}
		explanation := strings.TrimSpace(e.Explanation)
		if existing, ok := dict[word]; ok {
			dict[word] = existing + mergeSeparator + explanation
			report.Merged++
			continue
		}
		dict[word] = explanation
	}
	report.Words = len(dict)
	return dict, report
}

// ShardKey returns the shard a word belongs to: its first rune when that is
// in the Arabic block U+0600..U+06FF, otherwise "other".
func ShardKey(word string) string {
	r, _ := utf8.DecodeRuneInString(word)
	if r >= 0x0600 && r <= 0x06FF {
		return string(r)
	}
	return "other"
}

// ShardFile returns the file name of a shard key.
func ShardFile(key string) string {
	if key == "other" {
		return "shard_other.json"
	}
	r, _ := utf8.DecodeRuneInString(key)
	return "shard_" + strconv.Itoa(int(r)) + ".json"
}

// WriteShards splits dict by ShardKey into dir and writes the manifest. It
// returns the sorted shard keys.
func WriteShards(dir string, dict map[string]string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dictionary dir: %w", err)
	}

	shards := make(map[string]map[string]string)
	for word, explanation := range dict {
		key := ShardKey(word)
		if shards[key] == nil {
			shards[key] = make(map[string]string)
		}
		shards[key][word] = explanation
	}

	keys := make([]string, 0, len(shards))
	for key := range shards {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := store.WriteJSON(filepath.Join(dir, ShardFile(key)), shards[key]); err != nil {
			return nil, fmt.Errorf("write shard %s: %w", ShardFile(key), err)
		}
	}
	if err := store.WriteJSON(filepath.Join(dir, ManifestFile), keys); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return keys, nil
}
