package board

import (
	_ "embed"
	"strings"
)

//go:embed words.txt
var defaultWordList string

// DefaultWords returns the built-in word list. Blank lines and leading or
// trailing whitespace are stripped; entries are uppercased.
func DefaultWords() []string {
	lines := strings.Split(defaultWordList, "\n")
	words := make([]string, 0, len(lines))
	for _, line := range lines {
		w := strings.ToUpper(strings.TrimSpace(line))
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}
