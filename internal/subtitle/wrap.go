package subtitle

import (
	"strings"
	"unicode/utf8"
)

// splits text over two lines at the word boundary closest to the middle
// when it is longer than maxChars
func wrapText(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	runeCount := utf8.RuneCountInString(text)

	if maxChars <= 0 || runeCount <= maxChars {
		return text
	}

	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	middle := runeCount / 2
	bestSplit := 0
	bestDiff := runeCount

	currentLen := 0
	for i, word := range words[:len(words)-1] {
		currentLen += utf8.RuneCountInString(word)
		if i > 0 {
			currentLen++ // space
		}

		diff := abs(currentLen - middle)
		if diff < bestDiff {
			bestDiff = diff
			bestSplit = i + 1
		}
	}

	if bestSplit > 0 && bestSplit < len(words) {
		return strings.Join(words[:bestSplit], " ") + "\n" + strings.Join(words[bestSplit:], " ")
	}

	return text
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
