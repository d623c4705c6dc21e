package certificate

import "strings"

// MessageWidth is the wrap column for the free text message
const MessageWidth = 50

// WrapText greedily fills lines of at most width runes. Runs of whitespace
// collapse to one space and words longer than width are split, filling the
// rest of the current line first.
func WrapText(text string, width int) []string {
	if width <= 0 {
		width = MessageWidth
	}

	var lines []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
	}

	for _, field := range strings.Fields(text) {
		word := []rune(field)
		for len(word) > 0 {
			sep := 0
			if len(cur) > 0 {
				sep = 1
			}
			if len(cur)+sep+len(word) <= width {
				if sep == 1 {
					cur = append(cur, ' ')
				}
				cur = append(cur, word...)
				break
			}
			if len(word) > width {
				space := width - len(cur) - sep
				if space > 0 {
					if sep == 1 {
						cur = append(cur, ' ')
					}
					cur = append(cur, word[:space]...)
					word = word[space:]
				}
			}
			flush()
		}
	}
	flush()
	return lines
}
