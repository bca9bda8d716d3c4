package amdm

import (
	"strings"

	"github.com/sukalov/cifrabot/internal/cifra"
)

// sectionLabel inspects a marker line such as "[Куплет 2]:". It returns the
// output label for kept sections and keep=false for unwanted ones. Markers
// that are neither yield ("", true): the marker line is dropped but the
// lines after it are kept.
func (c ProcessingConfig) sectionLabel(marker string) (label string, keep bool) {
	for _, section := range c.UnwantedSections {
		if strings.Contains(marker, string(section)) {
			return "", false
		}
	}
	for section, label := range c.AllowedSections {
		if strings.Contains(marker, string(section)) {
			return label, true
		}
	}
	return "", true
}

func isMarker(trimmed string) bool {
	return strings.HasPrefix(trimmed, "[") && strings.Contains(trimmed, "]")
}

// isChordLine reports whether every field of the line is a chord symbol,
// a bar line or a repeat mark like "x2".
func isChordLine(trimmed string) bool {
	chords := 0
	for _, field := range strings.Fields(trimmed) {
		field = strings.Trim(field, "|()")
		switch {
		case field == "" || repeatMarkRegex.MatchString(field):
			continue
		case isChordSymbol(field):
			chords++
		default:
			return false
		}
	}
	return chords > 0
}

func isChordSymbol(field string) bool {
	for _, part := range strings.Split(field, "/") {
		found := cifra.ExtractChords(part)
		if len(found) != 1 || found[0] != part {
			return false
		}
	}
	return true
}

// sheetBuilder collects aligned lyric and chord lines.
type sheetBuilder struct {
	config   ProcessingConfig
	lyrics   []string
	chords   []string
	pending  string
	skipping bool
}

func (b *sheetBuilder) add(lyric, chords string) {
	b.lyrics = append(b.lyrics, lyric)
	b.chords = append(b.chords, chords)
}

func (b *sheetBuilder) blank() {
	if n := len(b.lyrics); n > 0 && b.lyrics[n-1] != "" {
		b.add("", "")
	}
}

func (b *sheetBuilder) line(raw string) {
	line := strings.TrimRight(raw, " \t\r")
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == "":
		// chords with no lyric line under them are instrumental
		b.pending = ""
		b.skipping = false
		b.blank()
	case isMarker(trimmed):
		label, keep := b.config.sectionLabel(trimmed)
		b.skipping = !keep
		b.pending = ""
		if label != "" {
			b.blank()
			b.add(label, "")
		}
	case b.skipping:
	case isSeparator(trimmed):
	case isChordLine(stripComments(trimmed)):
		b.pending = strings.TrimSpace(stripComments(trimmed))
	default:
		lyric := cleanLyricLine(line)
		if strings.TrimSpace(lyric) == "" {
			return
		}
		b.add(lyric, b.pending)
		b.pending = ""
	}
}

func (b *sheetBuilder) result() (lyrics, chords string) {
	for len(b.lyrics) > 0 && b.lyrics[len(b.lyrics)-1] == "" {
		b.lyrics = b.lyrics[:len(b.lyrics)-1]
		b.chords = b.chords[:len(b.chords)-1]
	}
	return strings.Join(b.lyrics, "\n"), strings.Join(b.chords, "\n")
}

// splitSheet turns the text of a chords block into aligned lyric and chord
// texts.
func splitSheet(text string, config ProcessingConfig) (lyrics, chords string) {
	b := &sheetBuilder{config: config}
	for _, line := range strings.Split(text, "\n") {
		b.line(line)
	}
	return b.result()
}
