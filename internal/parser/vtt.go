package parser

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	cueTimingRe = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?\.\d{3}\s+-->\s+\d{2}:\d{2}(:\d{2})?\.\d{3}`)
	wordStampRe = regexp.MustCompile(`<\d{2}:\d{2}:\d{2}\.\d{3}>`)
	cueTagRe    = regexp.MustCompile(`</?[a-z](\.[^>]*)?>`)
	vttHeaderRe = regexp.MustCompile(`(?i)^(kind|language):`)
)

// ParseVTT reads a WebVTT caption file and returns the spoken text as one
// string. Auto-generated captions repeat the previous caption and append a
// few words; only the appended words are kept.
func ParseVTT(r io.Reader) (string, error) {
	captions, err := readCues(r)
	if err != nil {
		return "", err
	}

	var parts []string
	last := ""
	for _, c := range captions {
		cleaned := cleanCaption(c)
		if cleaned == "" {
			continue
		}
		if strings.HasPrefix(cleaned, last) {
			if added := strings.TrimSpace(cleaned[len(last):]); added != "" {
				parts = append(parts, added)
				last = cleaned
			}
			continue
		}
		parts = append(parts, cleaned)
		last = cleaned
	}
	return strings.Join(parts, " "), nil
}

// readCues returns the text payload of each cue, in file order.
func readCues(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cues []string
	var text []string
	inCue := false
	lineNo := 0

	flush := func() {
		if inCue && len(text) > 0 {
			cues = append(cues, strings.Join(text, "\n"))
		}
		text = text[:0]
		inCue = false
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
			if !strings.HasPrefix(line, "WEBVTT") {
				return nil, fmt.Errorf("vtt format error: missing WEBVTT header")
			}
			continue
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case cueTimingRe.MatchString(trimmed):
			flush()
			inCue = true
		case inCue:
			text = append(text, trimmed)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cues, nil
}

func cleanCaption(s string) string {
	s = wordStampRe.ReplaceAllString(s, "")
	s = cueTagRe.ReplaceAllString(s, "")
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if vttHeaderRe.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(strings.Fields(strings.Join(kept, " ")), " ")
}
