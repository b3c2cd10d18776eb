package command

import (
	"strings"
	"unicode"
)

// Tokenize splits a line on whitespace, keeping quoted regions and
// parenthesized groups intact. Inside quotes parentheses are literal, and
// inside parentheses quote characters are literal. A backslash inside quotes
// keeps the next rune from closing the region; both runes are preserved.
//
// Unterminated quotes or groups are not reported here: the open token is
// returned as-is and the parser rejects it.
func Tokenize(line string) []string {
	tokens, _ := scan(line)
	return tokens
}

// scanState is what the tokenizer was inside of when the line ended.
type scanState struct {
	quote rune
	depth int
}

func (s scanState) balanced() bool { return s.quote == 0 && s.depth == 0 }

func scan(line string) ([]string, scanState) {
	var (
		tokens  []string
		cur     strings.Builder
		quote   rune
		depth   int
		escaped bool
	)

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range line {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			}
		case depth <= 0 && (r == '"' || r == '\''):
			quote = r
			cur.WriteRune(r)
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			depth--
			cur.WriteRune(r)
		case depth == 0 && unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return tokens, scanState{quote: quote, depth: depth}
}
