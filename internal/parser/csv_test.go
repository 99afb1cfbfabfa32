package parser

import (
	"strings"
	"testing"
)

func TestCSVParser_IndexOrdering(t *testing.T) {
	input := "index,text\n2,third block\n0,first block\n1,\"second, with comma\"\n"
	p := &CSVParser{}
	blocks, err := p.Parse(strings.NewReader(input), "b.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"first block", "second, with comma", "third block"}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(blocks))
	}
	for i, w := range want {
		if blocks[i].Text != w {
			t.Errorf("block %d: expected %q, got %q", i, w, blocks[i].Text)
		}
		if blocks[i].Index != i {
			t.Errorf("block %d: expected index %d, got %d", i, i, blocks[i].Index)
		}
	}
}

func TestCSVParser_LastColumnFallback(t *testing.T) {
	input := "id,english\na,alpha\nb,\nc,gamma\n"
	p := &CSVParser{}
	blocks, err := p.Parse(strings.NewReader(input), "b.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[1].Text != "gamma" {
		t.Errorf("expected %q, got %q", "gamma", blocks[1].Text)
	}
}

func TestCSVParser_BadIndex(t *testing.T) {
	input := "index,text\nx,oops\n"
	p := &CSVParser{}
	if _, err := p.Parse(strings.NewReader(input), "b.csv"); err == nil {
		t.Fatal("expected error for non-numeric index")
	}
}
