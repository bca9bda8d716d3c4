package render

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/sukalov/cifrabot/internal/cifra"
)

// Options controls how a sheet is laid out as text.
type Options struct {
	// Current is the global chord index to mark, -1 for none.
	Current int
	// HideChords prints the lyrics only.
	HideChords bool
}

// DefaultOptions renders every chord with nothing highlighted.
var DefaultOptions = Options{Current: -1}

func mark(label string) string {
	return "[" + label + "]"
}

func width(s string) int {
	return utf8.RuneCountInString(s)
}

// Text lays the sheet out as monospace text: for every section a chord line
// with each chord above the word it belongs to, followed by the lyrics line.
// A blank line separates sections of different types.
func Text(sheet cifra.Sheet, opts Options) string {
	var lines []string
	chordIdx := 0
	for i, section := range sheet.Sections {
		if i > 0 && section.Type != sheet.Sections[i-1].Type {
			lines = append(lines, "")
		}

		var chordLine, lyricLine strings.Builder
		chordWidth, lyricWidth := 0, 0
		hasChords := false
		for _, token := range section.Tokens {
			if token.HasChord() && !opts.HideChords {
				label := token.Chord
				if chordIdx == opts.Current {
					label = mark(label)
				}
				minCol := chordWidth
				if minCol > 0 {
					minCol++
				}
				if lyricWidth < minCol {
					lyricLine.WriteString(strings.Repeat(" ", minCol-lyricWidth))
					lyricWidth = minCol
				}
				chordLine.WriteString(strings.Repeat(" ", lyricWidth-chordWidth))
				chordLine.WriteString(label)
				chordWidth = lyricWidth + width(label)
				hasChords = true
			}
			if token.HasChord() {
				chordIdx++
			}
			lyricLine.WriteString(token.Text)
			lyricWidth += width(token.Text)
		}

		if hasChords {
			lines = append(lines, chordLine.String())
		}
		lines = append(lines, lyricLine.String())
	}
	return strings.Join(lines, "\n")
}

// Pre wraps rendered text in an escaped <pre> block for Telegram's HTML
// parse mode.
func Pre(text string) string {
	return "<pre>" + html.EscapeString(text) + "</pre>"
}

// PreChunks splits text into <pre> blocks, each at most limit runes once
// escaped and wrapped, so that entities like &amp; count at their sent size.
func PreChunks(text string, limit int) []string {
	chunks := split(text, limit-width(Pre("")), escapedWidth)
	for i, chunk := range chunks {
		chunks[i] = Pre(chunk)
	}
	return chunks
}

// escapedWidth is the rune count html.EscapeString gives r.
func escapedWidth(r rune) int {
	switch r {
	case '<', '>':
		return 4
	case '&', '\'', '"':
		return 5
	}
	return 1
}

// split cuts text on line boundaries into pieces whose summed rune widths
// stay within limit. A single line wider than limit is cut hard.
func split(text string, limit int, runeWidth func(rune) int) []string {
	measure := func(s string) int {
		n := 0
		for _, r := range s {
			n += runeWidth(r)
		}
		return n
	}
	if limit <= 0 || measure(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curWidth, started := 0, false
	flush := func() {
		if started {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curWidth, started = 0, false
		}
	}
	for _, line := range strings.Split(text, "\n") {
		for measure(line) > limit {
			flush()
			cut, w := 0, 0
			for i, r := range line {
				if w+runeWidth(r) > limit && i > 0 {
					break
				}
				w += runeWidth(r)
				cut = i + utf8.RuneLen(r)
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		need := measure(line)
		if started {
			need++
		}
		if curWidth+need > limit {
			flush()
			need = measure(line)
		}
		if started {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
		curWidth += need
		started = true
	}
	flush()
	return chunks
}
