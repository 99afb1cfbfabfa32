package translate

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrEmptyTranslation    = errors.New("empty translation")
	ErrSuspectTranslation  = errors.New("translation echoes instructions")
	ErrUntranslated        = errors.New("translation is still mostly Arabic")
	ErrOversizeTranslation = errors.New("translation is implausibly long")
)

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`forget\s+(everything|all)|new\s+instructions|^translate:|^context:)`,
)

// maxExpansion bounds output length relative to the source line, in runes.
const maxExpansion = 12

// ValidateTranslation cleans a model reply for source and rejects replies
// that cannot be a translation of it.
func ValidateTranslation(source, reply string) (string, error) {
	text := strings.TrimSpace(reply)
	text = strings.Trim(text, "\"“”")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyTranslation
	}
	if injectionPattern.MatchString(text) {
		return "", ErrSuspectTranslation
	}
	if n := utf8.RuneCountInString(source); n > 0 && utf8.RuneCountInString(text) > maxExpansion*n+200 {
		return "", ErrOversizeTranslation
	}
	if arabicShare(text) > 0.5 {
		return "", ErrUntranslated
	}
	return text, nil
}

func arabicShare(s string) float64 {
	letters, arabic := 0, 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Arabic, r) {
			arabic++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(arabic) / float64(letters)
}
