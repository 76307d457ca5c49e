package caption

import (
	"strings"
	"unicode/utf8"
)

// Text used when a model answer cannot be split into two lines.
const (
	UnparsedTop    = "Meme generation error"
	UnparsedBottom = "Please try again"
)

// A parseStrategy tries to split a model answer into two lines.
type parseStrategy struct {
	name  string
	split func(raw string) (top, bottom string)
}

// Strategies are tried in order; the first that yields two non-empty lines wins.
// This is heuristic: model output has no fixed format.
var parseStrategies = []parseStrategy{
	{name: "labelled lines", split: splitLabelledLines},
	{name: "sentence separator", split: splitOnSentence},
	{name: "meaningful lines", split: splitMeaningfulLines},
	{name: "halved line", split: splitHalvedLine},
}

var labelPrefixes = []string{"premise:", "punchline:", "caption:", "top:", "bottom:", "1.", "2.", "3."}

var sentenceSeparators = []string{". ", "? ", "! ", "\" ", "” "}

const minMeaningfulLength = 6

// Parse turns free model text into a caption.
func Parse(raw string) Caption {
	for _, s := range parseStrategies {
		top, bottom := s.split(raw)
		top, bottom = cleanLine(top), cleanLine(bottom)
		if top != "" && bottom != "" {
			return Caption{Top: top, Bottom: bottom}
		}
	}

	c := Caption{Top: UnparsedTop, Bottom: UnparsedBottom}
	for _, line := range nonEmptyLines(raw) {
		if l := cleanLine(stripLabels(line)); l != "" {
			c.Top = l
			break
		}
	}
	return c
}

func splitLabelledLines(raw string) (string, string) {
	var top string
	for _, line := range nonEmptyLines(raw) {
		l := stripLabels(line)
		if l == "" {
			continue
		}
		if top == "" {
			top = l
			continue
		}
		if l != top {
			return top, l
		}
	}
	return top, ""
}

func splitOnSentence(raw string) (string, string) {
	for _, sep := range sentenceSeparators {
		if !strings.Contains(raw, sep) {
			continue
		}
		parts := strings.SplitN(raw, sep, 2)
		top := stripLabels(collapseSpace(parts[0]))
		firstSentence := strings.SplitN(parts[1], ".", 2)[0]
		bottom := stripLabels(collapseSpace(firstSentence))
		return top, bottom
	}
	return "", ""
}

func splitMeaningfulLines(raw string) (string, string) {
	lines := meaningfulLines(raw)
	if len(lines) < 2 {
		return "", ""
	}
	return lines[0], lines[1]
}

func splitHalvedLine(raw string) (string, string) {
	lines := meaningfulLines(raw)
	if len(lines) != 1 {
		return "", ""
	}
	words := strings.Fields(lines[0])
	mid := len(words) / 2
	return strings.Join(words[:mid], " "), strings.Join(words[mid:], " ")
}

func meaningfulLines(raw string) []string {
	var out []string
	for _, line := range nonEmptyLines(raw) {
		l := stripLabels(line)
		if utf8.RuneCountInString(l) >= minMeaningfulLength {
			out = append(out, l)
		}
	}
	return out
}

func nonEmptyLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// stripLabels removes list markers, markdown emphasis and leading labels such as "Premise:".
func stripLabels(line string) string {
	l := strings.TrimSpace(line)
	for {
		before := l
		l = strings.TrimLeft(l, "*-#> \t")
		lower := strings.ToLower(l)
		for _, p := range labelPrefixes {
			if strings.HasPrefix(lower, p) {
				l = l[len(p):]
				break
			}
		}
		l = strings.TrimSpace(l)
		if l == before {
			return l
		}
	}
}

func cleanLine(s string) string {
	s = strings.NewReplacer("\"", "", "“", "", "”", "", "**", "").Replace(s)
	return collapseSpace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
