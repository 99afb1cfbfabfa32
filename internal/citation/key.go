package citation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrInvalidKey is returned by ParseKey for strings that are not citation keys.
var ErrInvalidKey = errors.New("invalid citation key")

// Key identifies a quoted unit and an optional range inside it.
type Key struct {
	Unit  string
	Start int
	End   int // equal to Start for single-unit citations
}

// String formats the key as "<unit>:<start>" or "<unit>:<start>-<end>".
func (k Key) String() string {
	return FormatKey(k.Unit, k.Start, k.End)
}

// IsRange reports whether the key spans more than one unit index.
func (k Key) IsRange() bool {
	return k.End > k.Start
}

// FormatKey builds the citation key for a match. The "-<end>" suffix is only
// written when end > start.
func FormatKey(unit string, start, end int) string {
	var sb strings.Builder
	sb.WriteString(unit)
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(start))
	if end > start {
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(end))
	}
	return sb.String()
}

// keyGrammar is the participle grammar for citation keys.
// Examples: "البقرة:255", "Al-Baqarah:1-5", "آل عمران:7"
type keyGrammar struct {
	Unit  string `parser:"@Unit ':'"`
	Start int    `parser:"@Int"`
	End   *int   `parser:"( '-' @Int )?"`
}

// Unit names may contain letters of any script, spaces and hyphens, but must
// not start with a digit or hyphen. Int is listed first so range bounds are
// never read as unit names.
var keyLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Unit", Pattern: `[^:0-9\-\s][^:]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var keyParser = participle.MustBuild[keyGrammar](
	participle.Lexer(keyLexer),
	participle.Elide("Whitespace"),
)

// ParseKey parses a citation key produced by FormatKey. A range whose end is
// not greater than its start is rejected so that every key has one spelling.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Key{}, fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	parsed, err := keyParser.ParseString("", s)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q: %v", ErrInvalidKey, s, err)
	}

	k := Key{Unit: strings.TrimSpace(parsed.Unit), Start: parsed.Start, End: parsed.Start}
	if parsed.End != nil {
		if *parsed.End <= parsed.Start {
			return Key{}, fmt.Errorf("%w: %q: range end must exceed start", ErrInvalidKey, s)
		}
		k.End = *parsed.End
	}
	if k.Unit == "" {
		return Key{}, fmt.Errorf("%w: %q: missing unit", ErrInvalidKey, s)
	}
	return k, nil
}
