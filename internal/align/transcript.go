package align

import (
	"strings"

	"github.com/dgallion1/ihya/internal/corpus"
)

// AlignTranscript spreads transcript words evenly over the source lines. Each
// line receives max(1, words/lines) words; the last line takes the remainder.
func AlignTranscript(lines []corpus.SourceLine, transcript string) []Record {
	n := len(lines)
	if n == 0 {
		return nil
	}
	words := corpus.Tokenize(transcript)
	per := max(1, len(words)/n)

	records := make([]Record, 0, n)
	for i, l := range lines {
		start := min(i*per, len(words))
		end := min((i+1)*per, len(words))
		if i == n-1 {
			end = len(words)
		}
		records = append(records, Record{
			SourceText:     l.Text,
			TranslatedText: strings.Join(words[start:end], " "),
		})
	}
	return records
}
