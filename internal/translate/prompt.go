package translate

import (
	"fmt"
	"strings"
)

const SystemPrompt = `You translate al-Ghazali's Ihya' 'Ulum al-Din from classical Arabic into clear, faithful English.

Rules:
- Translate only the line marked TRANSLATE. The preceding lines are context and must not be repeated.
- Keep Quranic quotations recognisable and give the sura name and verse number in brackets when you are certain of them.
- Transliterate technical terms the first time they appear, for example "sincerity (ikhlas)".
- Do not add commentary, notes or explanations.

Respond with ONLY the English translation of the marked line.`

// BuildLinePrompt builds the user message for one source line. Context holds
// earlier source/translation pairs, most recent last; it is trimmed from the
// front so that it stays within budget tokens.
func BuildLinePrompt(book string, context []Pair, line string, budget int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Book: %q\n", book))

	kept := trimContext(context, budget)
	if len(kept) > 0 {
		sb.WriteString("---\nContext:\n")
		for _, p := range kept {
			sb.WriteString(p.Source)
			sb.WriteString("\n=> ")
			sb.WriteString(p.Translation)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("---\nTRANSLATE:\n")
	sb.WriteString(line)
	return sb.String()
}

// Pair is one already translated line.
type Pair struct {
	Source      string
	Translation string
}

func trimContext(context []Pair, budget int) []Pair {
	if budget <= 0 {
		return nil
	}
	used := 0
	start := len(context)
	for i := len(context) - 1; i >= 0; i-- {
		cost := EstimateTokens(context[i].Source) + EstimateTokens(context[i].Translation)
		if used+cost > budget {
			break
		}
		used += cost
		start = i
	}
	return context[start:]
}
