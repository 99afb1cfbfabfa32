package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/ihya/internal/corpus"
)

// CSVParser handles block tables with a header row. The "text" column holds
// the block text; an optional "index" column orders the rows. Without a
// "text" header the last column is used.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) ([]corpus.TranslatedBlock, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := records[0]
	textCol, indexCol := -1, -1
	for i, h := range headers {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "text":
			textCol = i
		case "index":
			indexCol = i
		}
	}

	type row struct {
		order int
		text  string
	}
	rows := make([]row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		col := textCol
		if col < 0 || col >= len(rec) {
			col = len(rec) - 1
		}
		order := i
		if indexCol >= 0 && indexCol < len(rec) {
			n, err := strconv.Atoi(strings.TrimSpace(rec[indexCol]))
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid index %q", i+2, rec[indexCol])
			}
			order = n
		}
		rows = append(rows, row{order: order, text: rec[col]})
	}

	sort.SliceStable(rows, func(a, b int) bool { return rows[a].order < rows[b].order })

	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = r.text
	}
	return toBlocks(texts), nil
}
