package render

import (
	"strings"

	"golang.org/x/image/font"
)

// WrapText breaks text into lines no wider than maxWidth, filling each line greedily word by word.
// Words are never split: a single word wider than maxWidth becomes a line of its own.
func WrapText(face font.Face, text string, maxWidth int) []string {
	var lines []string
	var current []string

	for _, word := range strings.Fields(text) {
		current = append(current, word)
		if MeasureWidth(face, strings.Join(current, " ")) <= maxWidth {
			continue
		}

		if len(current) == 1 {
			lines = append(lines, word)
			current = nil
			continue
		}

		lines = append(lines, strings.Join(current[:len(current)-1], " "))
		current = []string{word}
	}

	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}
