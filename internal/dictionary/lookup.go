package dictionary

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/golang/groupcache/lru"

	"github.com/dgallion1/ihya/internal/store"
)

var ErrNotFound = errors.New("word not found")

// cachedShards bounds how many shards stay decoded in memory.
const cachedShards = 6

// prefixes are tried in order when the exact word is missing.
var prefixes = []string{"ال", "و", "ب", "ف", "ك", "ل"}

// Definition is a lookup result. Headword differs from Word when a prefix was
// stripped to find it.
type Definition struct {
	Word       string `json:"word"`
	Headword   string `json:"headword"`
	Definition string `json:"definition"`
}

// Lookup answers word queries from the shards in a directory.
type Lookup struct {
	dir string
	log *slog.Logger

	mu    sync.Mutex
	cache *lru.Cache
}

func NewLookup(dir string, log *slog.Logger) *Lookup {
	if log == nil {
		log = slog.Default()
	}
	return &Lookup{
		dir:   dir,
		log:   log,
		cache: lru.New(cachedShards),
	}
}

// Define looks word up. When the exact form is missing and the word has
// Arabic letters, one leading prefix is stripped as long as more than two
// runes remain.
func (l *Lookup) Define(word string) (Definition, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return Definition{}, ErrNotFound
	}

	text, ok, err := l.get(word)
	if err != nil {
		return Definition{}, err
	}
	if ok {
		return Definition{Word: word, Headword: word, Definition: text}, nil
	}
	if !hasArabic(word) {
		return Definition{}, ErrNotFound
	}

	for _, p := range prefixes {
		stem, found := strings.CutPrefix(word, p)
		if !found || utf8.RuneCountInString(stem) <= 2 {
			continue
		}
		text, ok, err := l.get(stem)
		if err != nil {
			return Definition{}, err
		}
		if ok {
			return Definition{Word: word, Headword: stem, Definition: text}, nil
		}
	}
	return Definition{}, ErrNotFound
}

func (l *Lookup) get(word string) (string, bool, error) {
	shard, err := l.shard(ShardKey(word))
	if err != nil {
		return "", false, err
	}
	text, ok := shard[word]
	return text, ok, nil
}

// shard returns a decoded shard, loading it on a cache miss. A shard file
// that does not exist is an empty shard.
func (l *Lookup) shard(key string) (map[string]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.cache.Get(key); ok {
		return v.(map[string]string), nil
	}

	path := filepath.Join(l.dir, ShardFile(key))
	var shard map[string]string
	err := store.ReadJSON(path, &shard)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		shard = map[string]string{}
	case err != nil:
		return nil, fmt.Errorf("load shard %s: %w", ShardFile(key), err)
	default:
		l.log.Debug("loaded dictionary shard", "shard", ShardFile(key), "words", len(shard))
	}
	l.cache.Add(key, shard)
	return shard, nil
}

// Shards returns the shard keys listed in the manifest.
func (l *Lookup) Shards() ([]string, error) {
	var keys []string
	if err := store.ReadJSON(filepath.Join(l.dir, ManifestFile), &keys); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return keys, nil
}

func hasArabic(s string) bool {
	for _, r := range s {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}
