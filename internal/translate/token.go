package translate

import "strings"

// EstimateTokens gives a rough token count for budgeting prompt context.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Count words as a better proxy than pure character division.
	words := len(strings.Fields(text))
	// Arabic script tokenizes worse than English; 1.33 per word is a floor.
	tokens := int(float64(words) * 1.33)
	if tokens < 1 && len(text) > 0 {
		tokens = 1
	}
	return tokens
}
