package align

import (
	"github.com/dgallion1/ihya/internal/corpus"
)

// Record pairs one source line with its translated text. TranslatedText is
// empty for continuation lines of a block.
type Record struct {
	SourceText     string `json:"source_text"`
	TranslatedText string `json:"translated_text"`
}

// Result is the output of Align.
type Result struct {
	Records []Record
	// Degenerate is set when there were source lines but no translated
	// blocks, so every record is unmatched.
	Degenerate bool
}

// Align distributes blocks over lines proportionally. It always returns
// exactly len(lines) records in line order.
//
// Block i covers lines [cursor, target(i)) with
// target(i) = min(N, ceil((i+1)*N/M)). The first line of a slice carries the
// block text; the rest carry "". When M > N, consecutive blocks can share a
// boundary and the later block's text is dropped.
func Align(lines []corpus.SourceLine, blocks []corpus.TranslatedBlock) Result {
	n, m := len(lines), len(blocks)
	records := make([]Record, 0, n)

	if m == 0 {
		for _, l := range lines {
			records = append(records, Record{SourceText: l.Text})
		}
		return Result{Records: records, Degenerate: n > 0}
	}

	cursor := 0
	for i, b := range blocks {
		target := Boundary(i, n, m)
		for j := cursor; j < target; j++ {
			rec := Record{SourceText: lines[j].Text}
			if j == cursor {
				rec.TranslatedText = b.Text
			}
			records = append(records, rec)
		}
		cursor = target
	}

	// Lines left over after the last block are only possible through rounding.
	for ; cursor < n; cursor++ {
		records = append(records, Record{SourceText: lines[cursor].Text})
	}

	return Result{Records: records}
}

// Boundary returns the exclusive end line of block i when n lines are shared
// by m blocks. Integer ceiling avoids float drift on exact multiples.
func Boundary(i, n, m int) int {
	if m <= 0 {
		return n
	}
	t := ((i+1)*n + m - 1) / m
	return min(t, n)
}
