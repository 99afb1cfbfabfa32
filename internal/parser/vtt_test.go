package parser

import (
	"strings"
	"testing"
)

func TestParseVTT_RollingCaptions(t *testing.T) {
	input := `WEBVTT
Kind: captions
Language: en

00:00:00.000 --> 00:00:02.000
in the name of

00:00:02.000 --> 00:00:04.000
in the name of<00:00:02.500><c> God</c><00:00:03.000><c> the merciful</c>

00:00:04.000 --> 00:00:05.000
in the name of God the merciful

00:00:05.000 --> 00:00:07.000
praise be to God
`
	got, err := ParseVTT(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "in the name of God the merciful praise be to God"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParseVTT_CueIdentifiers(t *testing.T) {
	input := "WEBVTT\r\n\r\n1\r\n00:01.000 --> 00:02.000\r\nfirst cue\r\n\r\n2\r\n00:02.000 --> 00:03.000\r\nsecond cue\r\n"
	got, err := ParseVTT(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "first cue second cue" {
		t.Errorf("expected %q, got %q", "first cue second cue", got)
	}
}

func TestParseVTT_MissingHeader(t *testing.T) {
	if _, err := ParseVTT(strings.NewReader("00:01.000 --> 00:02.000\nhello\n")); err == nil {
		t.Fatal("expected error for missing WEBVTT header")
	}
}
