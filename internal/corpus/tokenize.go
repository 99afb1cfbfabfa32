package corpus

import "strings"

// Tokenize splits text on runs of Unicode whitespace. Word offsets exchanged
// with a matching oracle are positions in this sequence, so oracle clients
// must build their token stream with this function and nothing else.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// WordLines maps each flat word offset of the lines to the index of the line
// that produced it. The table is non-decreasing and has exactly one entry per
// token of the concatenated lines.
func WordLines(lines []SourceLine) []int {
	var table []int
	for _, l := range lines {
		n := len(Tokenize(l.Text))
		for range n {
			table = append(table, l.Index)
		}
	}
	return table
}

// LineAt returns the line index for word offset i, or -1 when i is outside
// the table.
func LineAt(table []int, i int) int {
	if i < 0 || i >= len(table) {
		return -1
	}
	return table[i]
}
