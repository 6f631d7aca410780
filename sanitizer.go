package seq2seq_data

import (
	"regexp"
	"strings"
)

var extraWhiteSpace = regexp.MustCompile("[[:space:]]+")

// SanitizeLine
// Cleans one record before encoding: drops `\r`, turns escaped `\n` into a
// newline, joins ` :` into `:`, turns tabs into spaces, and collapses runs
// of whitespace within each resulting line. Runs of newlines collapse to
// one.
func SanitizeLine(text string) string {
	runes := make([]rune, 0, len(text))
	lastRune := rune(0)
	for _, r := range text {
		switch {
		case r == '\r':
			// Silently drop Windows `\r`
			continue
		case r == 'n' && lastRune == '\\':
			runes[len(runes)-1] = '\n'
		case r == ':' && lastRune == ' ':
			runes[len(runes)-1] = ':'
		case r == '\t':
			runes = append(runes, ' ')
		default:
			runes = append(runes, r)
		}
		lastRune = runes[len(runes)-1]
		if lastRune == '\n' && len(runes) > 1 &&
			runes[len(runes)-2] == '\n' {
			runes = runes[:len(runes)-1]
		}
	}
	lines := strings.Split(string(runes), "\n")
	for lineIdx, line := range lines {
		line = extraWhiteSpace.ReplaceAllString(line, " ")
		lines[lineIdx] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}
