// Package cifra parses chord sheets into sections of word tokens,
// transposes chord symbols and maps playback progress to a chord index.
//
// Everything in this package is pure and safe for concurrent use.
package cifra

import "strings"

// SectionType classifies a line of a song.
type SectionType string

const (
	SectionVerse  SectionType = "verse"
	SectionChorus SectionType = "chorus"
	SectionBridge SectionType = "bridge"
)

// Token is a verbatim run of text (a word or a whitespace run) with the
// chord attached to it, if any.
type Token struct {
	Text  string `json:"text"`
	Chord string `json:"chord,omitempty"`
}

// HasChord reports whether a chord label is attached to the token.
func (t Token) HasChord() bool {
	return t.Chord != ""
}

// Section is one parsed line of a song. Tokens is never empty.
type Section struct {
	Type   SectionType `json:"type"`
	Tokens []Token     `json:"tokens"`
}

// Sheet is the ordered result of Parse. The order of sections and tokens
// defines the global chord index used for highlighting.
type Sheet struct {
	Sections []Section `json:"sections"`
}

// ChordCount returns the number of chord-bearing tokens in the sheet.
func (s Sheet) ChordCount() int {
	total := 0
	for _, section := range s.Sections {
		for _, token := range section.Tokens {
			if token.HasChord() {
				total++
			}
		}
	}
	return total
}

// Locate maps a global chord index back to the section and token holding it.
func (s Sheet) Locate(index int) (section, token int, ok bool) {
	if index < 0 {
		return 0, 0, false
	}
	n := 0
	for si, sec := range s.Sections {
		for ti, tok := range sec.Tokens {
			if !tok.HasChord() {
				continue
			}
			if n == index {
				return si, ti, true
			}
			n++
		}
	}
	return 0, 0, false
}

// Text joins the token texts of every section, one line per section.
func (s Sheet) Text() string {
	var b strings.Builder
	for i, section := range s.Sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, token := range section.Tokens {
			b.WriteString(token.Text)
		}
	}
	return b.String()
}
