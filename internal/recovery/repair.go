package recovery

import "strings"

// cleanText strips markdown fencing that models wrap payloads in.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// outerSpan trims the text to the first '{' through the last '}'.
func outerSpan(s string) string {
	if i := strings.IndexByte(s, '{'); i != -1 {
		s = s[i:]
	}
	if i := strings.LastIndexByte(s, '}'); i != -1 {
		s = s[:i+1]
	}
	return s
}

// nextToken returns the first non-whitespace byte at or after pos, or
// zero at end of input.
func nextToken(s string, pos int) byte {
	for i := pos; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return s[i]
		}
	}
	return 0
}

// closesString reports whether a quote at pos-1 plausibly terminates a
// string value: the next significant byte must be a structural token.
// Anything else means the quote sits inside prose and needs escaping.
func closesString(s string, pos int) bool {
	switch nextToken(s, pos) {
	case ',', '}', ']', ':', 0:
		return true
	}
	return false
}

// repairAggressive trims non-structural leading/trailing text, escapes
// raw control characters and unescaped quotes inside string values,
// collapses stray newlines between tokens, and drops trailing commas.
func repairAggressive(s string) string {
	s = outerSpan(s)
	var b strings.Builder
	b.Grow(len(s))
	inStr := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch c {
			case '\\':
				b.WriteByte(c)
				if i+1 < len(s) {
					i++
					b.WriteByte(s[i])
				}
			case '"':
				if closesString(s, i+1) {
					inStr = false
					b.WriteByte(c)
				} else {
					b.WriteString(`\"`)
				}
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				b.WriteByte(c)
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
			b.WriteByte(c)
		case ',':
			if next := nextToken(s, i+1); next == '}' || next == ']' {
				continue
			}
			b.WriteByte(c)
		case '\n', '\r':
			out := b.String()
			if len(out) > 0 && out[len(out)-1] != ' ' {
				b.WriteByte(' ')
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// repairMinimal only trims leading/trailing junk and drops trailing
// commas. It skips the newline handling on purpose so legitimate
// multi-paragraph string content is never touched.
func repairMinimal(s string) string {
	s = outerSpan(s)
	var b strings.Builder
	b.Grow(len(s))
	inStr := false
	esc := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			b.WriteByte(c)
			if esc {
				esc = false
				continue
			}
			if c == '\\' {
				esc = true
			} else if c == '"' {
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
			b.WriteByte(c)
		case ',':
			if next := nextToken(s, i+1); next == '}' || next == ']' {
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

type span struct {
	start, end int
}

// balancedSpans returns every top-level balanced object span, in the
// order the objects open. String contents are skipped so braces inside
// values do not unbalance the scan.
func balancedSpans(text string) []span {
	var spans []span
	var stack []int
	inStr := false
	esc := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inStr {
			if esc {
				esc = false
				continue
			}
			switch c {
			case '\\':
				esc = true
			case '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			stack = append(stack, i)
		case '}':
			if len(stack) > 0 {
				start := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					spans = append(spans, span{start, i + 1})
				}
			}
		}
	}
	return spans
}

// lastItemEnd returns the offset just past the last fully closed
// depth-two object, i.e. the last complete item of the top-level
// array, or zero when no item ever closed.
func lastItemEnd(s string) int {
	depth := 0
	inStr := false
	esc := false
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			if esc {
				esc = false
				continue
			}
			switch c {
			case '\\':
				esc = true
			case '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 1 {
				last = i + 1
			}
		}
	}
	return last
}
