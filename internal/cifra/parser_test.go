package cifra

import (
	"reflect"
	"strings"
	"testing"
)

func tokensOf(t *testing.T, sheet Sheet) []Token {
	t.Helper()
	if len(sheet.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sheet.Sections))
	}
	return sheet.Sections[0].Tokens
}

func TestParse_InlineSimple(t *testing.T) {
	sheet := Parse("[C]Hello [G]world", "")
	got := tokensOf(t, sheet)
	want := []Token{{Text: "Hello", Chord: "C"}, {Text: " "}, {Text: "world", Chord: "G"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if sheet.Sections[0].Type != SectionVerse {
		t.Errorf("expected verse, got %q", sheet.Sections[0].Type)
	}
}

func TestParse_LinePair(t *testing.T) {
	got := tokensOf(t, Parse("Hello world", "C   G"))
	want := []Token{{Text: "Hello", Chord: "C"}, {Text: " "}, {Text: "world", Chord: "G"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestParse_UnmatchedBracket(t *testing.T) {
	got := tokensOf(t, Parse("[C]Hello [G", ""))
	want := []Token{{Text: "Hello", Chord: "C"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestParse_Empty(t *testing.T) {
	if sheet := Parse("", ""); len(sheet.Sections) != 0 {
		t.Errorf("expected no sections, got %d", len(sheet.Sections))
	}
	if sheet := Parse("   \n\t\n", "  \n"); len(sheet.Sections) != 0 {
		t.Errorf("expected whitespace-only lines to be dropped, got %d sections", len(sheet.Sections))
	}
	if sheet := Parse("[C]\n[G]   \n", ""); len(sheet.Sections) != 0 {
		t.Errorf("expected chord-only lines to yield no sections, got %d", len(sheet.Sections))
	}
}

func TestParse_InlineIgnoresChordsArgument(t *testing.T) {
	got := tokensOf(t, Parse("[Am]la", "G D"))
	want := []Token{{Text: "la", Chord: "Am"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestParse_InlineMidWordChord(t *testing.T) {
	got := tokensOf(t, Parse("be[C]lo [ G ]mar", ""))
	want := []Token{{Text: "be"}, {Text: "lo", Chord: "C"}, {Text: " "}, {Text: "mar", Chord: "G"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestParse_InlineChordBeforeWhitespace(t *testing.T) {
	// a whitespace run never takes the chord; the next marker replaces it
	got := tokensOf(t, Parse("[C]  [G]x", ""))
	want := []Token{{Text: "  "}, {Text: "x", Chord: "G"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestParse_LinePairMismatch(t *testing.T) {
	sheet := Parse("Hello big world\nsecond line", "C G\nA B C D E")
	if len(sheet.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sheet.Sections))
	}

	first := sheet.Sections[0].Tokens
	wantFirst := []Token{{Text: "Hello", Chord: "C"}, {Text: " "}, {Text: "big", Chord: "G"}, {Text: " "}, {Text: "world"}}
	if !reflect.DeepEqual(first, wantFirst) {
		t.Errorf("more words than chords: expected %+v, got %+v", wantFirst, first)
	}

	second := sheet.Sections[1].Tokens
	wantSecond := []Token{{Text: "second", Chord: "A"}, {Text: " "}, {Text: "line", Chord: "B"}}
	if !reflect.DeepEqual(second, wantSecond) {
		t.Errorf("more chords than words: expected %+v, got %+v", wantSecond, second)
	}
}

func TestParse_LinePairUnevenLineCounts(t *testing.T) {
	sheet := Parse("one\ntwo\nthree", "C")
	if len(sheet.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sheet.Sections))
	}
	if sheet.Sections[0].Tokens[0].Chord != "C" {
		t.Errorf("expected first word to carry C, got %q", sheet.Sections[0].Tokens[0].Chord)
	}
	for _, section := range sheet.Sections[1:] {
		for _, token := range section.Tokens {
			if token.HasChord() {
				t.Errorf("unexpected chord %q on %q", token.Chord, token.Text)
			}
		}
	}

	// a chord line with no lyrics under it produces nothing
	sheet = Parse("\nfoo", "C\nG")
	got := tokensOf(t, sheet)
	want := []Token{{Text: "foo", Chord: "G"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestParse_CRLF(t *testing.T) {
	sheet := Parse("[C]one\r\n[G]two\r\n", "")
	if len(sheet.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sheet.Sections))
	}
	if text := sheet.Text(); text != "one\ntwo" {
		t.Errorf("expected %q, got %q", "one\ntwo", text)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want SectionType
	}{
		{"Refrão: [C]la la", SectionChorus},
		{"REFRÃO", SectionChorus},
		{"Chorus:", SectionChorus},
		{"Ponte", SectionBridge},
		{"[Am]bridge over", SectionBridge},
		{"chorus and bridge", SectionChorus},
		{"Imagine there's no heaven", SectionVerse},
		{"", SectionVerse},
	}
	for _, tt := range tests {
		if got := Classify(tt.line); got != tt.want {
			t.Errorf("Classify(%q): expected %q, got %q", tt.line, tt.want, got)
		}
	}
}

func TestParse_SectionTypesFollowLines(t *testing.T) {
	sheet := Parse("[C]verse line\nRefrão: [G]sing\nPonte: [D]cross", "")
	want := []SectionType{SectionVerse, SectionChorus, SectionBridge}
	if len(sheet.Sections) != len(want) {
		t.Fatalf("expected %d sections, got %d", len(want), len(sheet.Sections))
	}
	for i, w := range want {
		if sheet.Sections[i].Type != w {
			t.Errorf("section[%d]: expected %q, got %q", i, w, sheet.Sections[i].Type)
		}
	}

	// line-pair mode classifies from the lyrics line
	sheet = Parse("Chorus here", "C")
	if sheet.Sections[0].Type != SectionChorus {
		t.Errorf("expected chorus, got %q", sheet.Sections[0].Type)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name           string
		lyrics, chords string
		want           string
	}{
		{
			name:   "inline",
			lyrics: "[C]Imagine there's no [Cmaj7]heaven\n\n[F]It's easy if you [C]try\n   \n[Cmaj7]No hell be[F]low us",
			want:   "Imagine there's no heaven\nIt's easy if you try\nNo hell below us",
		},
		{
			name:   "line pair",
			lyrics: "Today is gonna be the day\n\nThat they're  gonna throw it back to you",
			chords: "Em7 G\n\nD C",
			want:   "Today is gonna be the day\nThat they're  gonna throw it back to you",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.lyrics, tt.chords).Text(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParse_WhitespaceTokensNeverCarryChords(t *testing.T) {
	inputs := [][2]string{
		{"[C]  a  [G]  b [D]", ""},
		{"  a   b  c ", "C G D E F"},
		{"x\ty", "Am\tF"},
	}
	for _, in := range inputs {
		for _, section := range Parse(in[0], in[1]).Sections {
			if len(section.Tokens) == 0 {
				t.Errorf("%q: empty section", in[0])
			}
			for _, token := range section.Tokens {
				if token.HasChord() && strings.TrimSpace(token.Text) == "" {
					t.Errorf("%q: whitespace token %q carries chord %q", in[0], token.Text, token.Chord)
				}
			}
		}
	}
}

func TestParse_Idempotent(t *testing.T) {
	lyrics := "[C]Let it [G]be\nRefrão: [Am]let it [F]be"
	a := Parse(lyrics, "")
	b := Parse(lyrics, "")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("expected identical sheets, got %+v and %+v", a, b)
	}
}

func TestParse_LinePairDiminishedMarks(t *testing.T) {
	got := tokensOf(t, Parse("Eu te amo agora", "Cº   G   Am"))
	want := []Token{
		{Text: "Eu", Chord: "Cº"}, {Text: " "},
		{Text: "te", Chord: "G"}, {Text: " "},
		{Text: "amo", Chord: "Am"}, {Text: " "},
		{Text: "agora"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestParse_InlineBracketPadding(t *testing.T) {
	got := tokensOf(t, Parse("[ Am ]la [G ]lá ", ""))
	want := []Token{{Text: "la", Chord: "Am"}, {Text: " "}, {Text: "lá", Chord: "G"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
