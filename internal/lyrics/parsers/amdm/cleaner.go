package amdm

import (
	"regexp"
	"strings"
)

var (
	blockCommentRegex  = regexp.MustCompile(`/\*[^*]*\*/`)
	openCommentRegex   = regexp.MustCompile(`/\*.*$`)
	separatorLineRegex = regexp.MustCompile(`^[\s|]*$`)
	repeatMarkRegex    = regexp.MustCompile(`^[xхXХ]\d+$`)
)

// stripComments removes author comments written as /* ... */, including
// one left open at the end of a line.
func stripComments(line string) string {
	line = blockCommentRegex.ReplaceAllString(line, "")
	return openCommentRegex.ReplaceAllString(line, "")
}

// cleanLyricLine drops comment leftovers and stray markup characters.
func cleanLyricLine(line string) string {
	line = stripComments(line)
	line = strings.ReplaceAll(line, "*", "")
	line = strings.ReplaceAll(line, "/", "")
	return strings.TrimRight(line, " \t")
}

// isSeparator reports lines made only of bar lines and spaces.
func isSeparator(line string) bool {
	return separatorLineRegex.MatchString(line)
}
