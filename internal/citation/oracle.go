package citation

import "context"

// Oracle finds quoted material in a token stream. Offsets in the result are
// positions in tokens, which callers must build with corpus.Tokenize.
type Oracle interface {
	Match(ctx context.Context, tokens []string, selector string) (Result, error)
}

// Result is the oracle's answer for one document, in emission order.
type Result struct {
	Units  []UnitMatches `json:"units"`
	Errors []string      `json:"errors,omitempty"`
}

// UnitMatches groups the matches reported for one unit name.
type UnitMatches struct {
	Unit    string  `json:"unit"`
	Matches []Match `json:"matches"`
}

// Match is a single span reported by the oracle.
type Match struct {
	Unit      string `json:"unit"`
	Text      string `json:"text"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	WordStart int    `json:"word_start"`
	WordEnd   int    `json:"word_end"`
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, tokens []string, selector string) (Result, error)

func (f OracleFunc) Match(ctx context.Context, tokens []string, selector string) (Result, error) {
	return f(ctx, tokens, selector)
}
