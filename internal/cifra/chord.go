package cifra

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chord is a chord symbol split into the part that transposes (Root and
// Accidental) and the quality suffix that is carried through unchanged.
type Chord struct {
	Root       byte
	Accidental string
	Suffix     string
}

// Key returns the root with its accidental, e.g. "F#" for "F#m7".
func (c Chord) Key() string {
	return string(c.Root) + c.Accidental
}

func (c Chord) String() string {
	return c.Key() + c.Suffix
}

// named quality tokens, longest first so "maj" wins over "m"
var qualities = []string{"maj", "min", "dim", "aug", "sus", "add", "m", "M"}

// quality marks written as symbols: º and ° (diminished), ø (half
// diminished), + (augmented)
var marks = []string{"º", "°", "ø", "+"}

func isRoot(b byte) bool {
	return b >= 'A' && b <= 'G'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// ParseChord splits a single chord symbol into root, accidental and suffix.
// Everything after the root and accidental is kept verbatim as the suffix.
func ParseChord(symbol string) (Chord, bool) {
	if symbol == "" || !isRoot(symbol[0]) {
		return Chord{}, false
	}
	c := Chord{Root: symbol[0]}
	i := 1
	if i < len(symbol) && (symbol[i] == '#' || symbol[i] == 'b') {
		c.Accidental = symbol[i : i+1]
		i++
	}
	c.Suffix = symbol[i:]
	return c, true
}

// scanChord reads a chord-shaped run starting at s[start] and returns the
// index just past it. The run is: root, optional accidental, then any
// sequence of named qualities and digit runs. Alterations like "b5" or "#9"
// are only accepted after a first quality token.
func scanChord(s string, start int) (Chord, int, bool) {
	if start >= len(s) || !isRoot(s[start]) {
		return Chord{}, start, false
	}
	c := Chord{Root: s[start]}
	i := start + 1
	if i < len(s) && (s[i] == '#' || s[i] == 'b') {
		c.Accidental = s[i : i+1]
		i++
	}

	suffixStart := i
	seenQuality := false
	for i < len(s) {
		if n := matchMark(s[i:]); n > 0 {
			i += n
			seenQuality = true
			continue
		}
		if n := matchQuality(s[i:]); n > 0 {
			i += n
			seenQuality = true
			continue
		}
		if isDigit(s[i]) {
			for i < len(s) && isDigit(s[i]) {
				i++
			}
			seenQuality = true
			continue
		}
		if seenQuality && (s[i] == 'b' || s[i] == '#') && i+1 < len(s) && isDigit(s[i+1]) {
			i++
			continue
		}
		break
	}
	c.Suffix = s[suffixStart:i]
	return c, i, true
}

func matchQuality(s string) int {
	for _, q := range qualities {
		if strings.HasPrefix(s, q) {
			return len(q)
		}
	}
	return 0
}

func matchMark(s string) int {
	for _, m := range marks {
		if strings.HasPrefix(s, m) {
			return len(m)
		}
	}
	return 0
}

// isWordRune reports whether r continues a word, in which case a chord
// cannot start right after it or end right before it. The symbol marks are
// consumed by scanChord before this is checked.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '#'
}


// chordAt returns the chord starting at s[i] if it is a standalone symbol,
// i.e. it is not glued to a word on either side.
func chordAt(s string, i int) (Chord, int, bool) {
	if i >= len(s) || !isRoot(s[i]) {
		return Chord{}, i, false
	}
	if i > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:i]); isWordRune(r) {
			return Chord{}, i, false
		}
	}
	c, end, ok := scanChord(s, i)
	if !ok {
		return Chord{}, i, false
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return Chord{}, i, false
		}
	}
	return c, end, true
}

// ExtractChords returns every chord symbol found in line, left to right.
func ExtractChords(line string) []string {
	var found []string
	for i := 0; i < len(line); {
		if c, end, ok := chordAt(line, i); ok {
			found = append(found, c.String())
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(line[i:])
		i += size
	}
	return found
}
