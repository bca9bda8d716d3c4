package cifra

import (
	"math"
	"testing"
	"time"
)

func TestCurrentChordIndex(t *testing.T) {
	sheet := Parse("[C]one [G]two\n[Am]three [F]four", "")
	if n := sheet.ChordCount(); n != 4 {
		t.Fatalf("expected 4 chords, got %d", n)
	}

	tests := []struct {
		progress float64
		want     int
	}{
		{0.0, 0},
		{0.24, 0},
		{0.25, 1},
		{0.5, 2},
		{0.99, 3},
		{1.0, 3},
		{1.7, 3},
		{-0.3, 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := CurrentChordIndex(sheet, tt.progress); got != tt.want {
			t.Errorf("CurrentChordIndex(%v): expected %d, got %d", tt.progress, tt.want, got)
		}
	}
}

func TestCurrentChordIndex_NoChords(t *testing.T) {
	sheet := Parse("just words\nand more words", "")
	for _, p := range []float64{0, 0.5, 1} {
		if got := CurrentChordIndex(sheet, p); got != -1 {
			t.Errorf("CurrentChordIndex(%v): expected -1, got %d", p, got)
		}
	}
	if got := CurrentChordIndex(Sheet{}, 0.5); got != -1 {
		t.Errorf("empty sheet: expected -1, got %d", got)
	}
}

func TestCurrentChordIndex_Monotonic(t *testing.T) {
	sheet := Parse("[C]a [G]b [Am]c\n[F]d [C]e\nRefrão: [G]f [D]g", "")
	total := sheet.ChordCount()
	prev := -1
	for i := 0; i <= 1000; i++ {
		idx := CurrentChordIndex(sheet, float64(i)/1000)
		if idx < prev {
			t.Fatalf("index went backwards at step %d: %d after %d", i, idx, prev)
		}
		if idx < 0 || idx > total-1 {
			t.Fatalf("index %d out of range [0, %d]", idx, total-1)
		}
		prev = idx
	}
	if prev != total-1 {
		t.Errorf("expected to end on %d, got %d", total-1, prev)
	}
}

func TestLocate(t *testing.T) {
	sheet := Parse("[C]a b [G]c\nno chords here\n[Am]d", "")
	tests := []struct {
		index          int
		section, token int
		ok             bool
	}{
		{0, 0, 0, true},
		{1, 0, 4, true},
		{2, 2, 0, true},
		{3, 0, 0, false},
		{-1, 0, 0, false},
	}
	for _, tt := range tests {
		s, tok, ok := sheet.Locate(tt.index)
		if ok != tt.ok || s != tt.section || tok != tt.token {
			t.Errorf("Locate(%d): expected (%d, %d, %v), got (%d, %d, %v)", tt.index, tt.section, tt.token, tt.ok, s, tok, ok)
		}
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		current, duration time.Duration
		want              float64
	}{
		{30 * time.Second, 0, 0},
		{30 * time.Second, 60 * time.Second, 0.5},
		{90 * time.Second, 60 * time.Second, 1},
		{-time.Second, 60 * time.Second, 0},
	}
	for _, tt := range tests {
		if got := Progress(tt.current, tt.duration); got != tt.want {
			t.Errorf("Progress(%v, %v): expected %v, got %v", tt.current, tt.duration, tt.want, got)
		}
	}
}
