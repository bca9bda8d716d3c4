package cifra

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

var chromatic = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteIndex looks up a root in the sharp-spelled scale. Flat spellings are
// not in the scale and return -1.
func noteIndex(key string) int {
	for i, note := range chromatic {
		if note == key {
			return i
		}
	}
	return -1
}

// Transpose shifts a single chord symbol by steps semitones. Symbols whose
// root is not a sharp-spelled note (including flats such as "Db") are
// returned unchanged.
func Transpose(symbol string, steps int) string {
	c, ok := ParseChord(symbol)
	if !ok {
		return symbol
	}
	idx := noteIndex(c.Key())
	if idx < 0 {
		return symbol
	}
	next := ((idx+steps%12)%12 + 12) % 12
	return chromatic[next] + c.Suffix
}

// TransposeAll shifts every chord symbol found in text, leaving everything
// else untouched.
func TransposeAll(text string, steps int) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		if _, end, ok := chordAt(text, i); ok {
			b.WriteString(Transpose(text[i:end], steps))
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[i : i+size])
		i += size
	}
	return b.String()
}

// transposeLabel transposes a chord label as attached to a token. A slash
// bass ("Am7/G") is shifted along with the root.
func transposeLabel(label string, steps int) string {
	slash := strings.LastIndexByte(label, '/')
	if slash <= 0 || slash == len(label)-1 {
		return Transpose(label, steps)
	}
	bass := label[slash+1:]
	if _, ok := ParseChord(bass); !ok {
		return Transpose(label, steps)
	}
	return Transpose(label[:slash], steps) + "/" + Transpose(bass, steps)
}

// Transpose returns a copy of the sheet with every chord shifted by steps.
func (s Sheet) Transpose(steps int) Sheet {
	out := Sheet{Sections: make([]Section, len(s.Sections))}
	for i, section := range s.Sections {
		tokens := make([]Token, len(section.Tokens))
		for j, token := range section.Tokens {
			if token.HasChord() && steps%12 != 0 {
				token.Chord = transposeLabel(token.Chord, steps)
			}
			tokens[j] = token
		}
		out.Sections[i] = Section{Type: section.Type, Tokens: tokens}
	}
	return out
}

// KeyName formats a transposition offset the way the viewer shows it,
// e.g. "C (+2)". Keys that cannot be transposed (flat spellings such as
// "Bb") show the offset relative to the written key instead: "+2 from Bb".
func KeyName(original string, steps int) string {
	if original == "" {
		original = "C"
	}
	offset := strconv.Itoa(steps)
	if steps > 0 {
		offset = "+" + offset
	}
	key := Transpose(original, steps)
	switch {
	case steps == 0:
		return key
	case key == original && steps%12 != 0:
		return offset + " from " + original
	}
	return key + " (" + offset + ")"
}
