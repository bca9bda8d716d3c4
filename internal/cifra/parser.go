package cifra

import (
	"strings"
	"unicode"
)

// sectionKeywords is checked in order against the lowercased source line.
var sectionKeywords = []struct {
	keyword string
	section SectionType
}{
	{"refrão", SectionChorus},
	{"chorus", SectionChorus},
	{"ponte", SectionBridge},
	{"bridge", SectionBridge},
}

// Classify returns the section type a source line belongs to.
func Classify(line string) SectionType {
	lower := strings.ToLower(line)
	for _, k := range sectionKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.section
		}
	}
	return SectionVerse
}

// Parse turns song text into a Sheet. When lyrics carries inline chords
// ("[C]Hello [G]world") chords is ignored; otherwise lyrics and chords are
// read as parallel lines and the n-th chord of a chord line goes to the n-th
// word of the matching lyrics line.
//
// Parse never fails: unmatched brackets and chord/word count mismatches
// only drop the chords that cannot be placed.
func Parse(lyrics, chords string) Sheet {
	if IsInline(lyrics) {
		return parseInline(lyrics)
	}
	return parseLinePairs(lyrics, chords)
}

// IsInline reports whether text would be parsed in inline-bracket mode.
func IsInline(text string) bool {
	return strings.Contains(text, "[") && strings.Contains(text, "]")
}

func parseInline(text string) Sheet {
	var sheet Sheet
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tokens := inlineTokens(line)
		if len(tokens) == 0 {
			continue
		}
		sheet.Sections = append(sheet.Sections, Section{Type: Classify(line), Tokens: tokens})
	}
	return sheet
}

func inlineTokens(line string) []Token {
	var tokens []Token
	pending := ""
	cursor := 0
	for {
		open := strings.IndexByte(line[cursor:], '[')
		if open < 0 {
			tokens, _ = appendWords(tokens, line[cursor:], pending)
			break
		}
		open += cursor
		tokens, pending = appendWords(tokens, line[cursor:open], pending)

		closing := strings.IndexByte(line[open+1:], ']')
		if closing < 0 {
			// unmatched '[': the rest of the line is dropped
			break
		}
		closing += open + 1
		pending = strings.TrimSpace(line[open+1 : closing])
		cursor = closing + 1
	}
	return trimTrailingSpace(tokens)
}

// appendWords splits text into word and whitespace tokens and attaches the
// pending chord to the first word. It returns what is still pending.
func appendWords(tokens []Token, text, pending string) ([]Token, string) {
	for _, run := range splitWords(text) {
		token := Token{Text: run}
		if pending != "" && !isSpace(run) {
			token.Chord = pending
			pending = ""
		}
		tokens = append(tokens, token)
	}
	return tokens, pending
}

func parseLinePairs(lyrics, chords string) Sheet {
	var sheet Sheet
	lyricLines := splitLines(lyrics)
	chordLines := splitLines(chords)

	n := max(len(lyricLines), len(chordLines))
	for i := 0; i < n; i++ {
		lyric := lineAt(lyricLines, i)
		chordLine := lineAt(chordLines, i)
		if strings.TrimSpace(lyric) == "" && strings.TrimSpace(chordLine) == "" {
			continue
		}

		candidates := ExtractChords(chordLine)
		var tokens []Token
		next := 0
		for _, run := range splitWords(lyric) {
			token := Token{Text: run}
			if !isSpace(run) && next < len(candidates) {
				token.Chord = candidates[next]
				next++
			}
			tokens = append(tokens, token)
		}

		tokens = trimTrailingSpace(tokens)
		if len(tokens) == 0 {
			continue
		}
		sheet.Sections = append(sheet.Sections, Section{Type: Classify(lyric), Tokens: tokens})
	}
	return sheet
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}

// splitWords cuts text into alternating runs of whitespace and non-whitespace.
func splitWords(text string) []string {
	var runs []string
	start := 0
	inSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if i > start && space != inSpace {
			runs = append(runs, text[start:i])
			start = i
		}
		inSpace = space
	}
	if start < len(text) {
		runs = append(runs, text[start:])
	}
	return runs
}

func isSpace(s string) bool {
	return strings.TrimSpace(s) == ""
}

func trimTrailingSpace(tokens []Token) []Token {
	for len(tokens) > 0 && isSpace(tokens[len(tokens)-1].Text) {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}
