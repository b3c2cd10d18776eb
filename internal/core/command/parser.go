package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/mapcat/internal/core/domain"
)

// Parse turns one raw command line into a ParsedCommand.
//
// Format: <command> [(lat,lng)[;(lat,lng)...]] [key=value ...]
//
// The command name is taken verbatim. Coordinates are validated for syntax and
// range here, so anything that reaches a handler is a real WGS 84 position.
func Parse(line string) (domain.ParsedCommand, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return domain.ParsedCommand{}, &ParseError{Kind: ErrEmptyInput, Reason: "empty line"}
	}

	tokens, state := scan(line)
	if len(tokens) == 0 {
		return domain.ParsedCommand{}, &ParseError{Kind: ErrEmptyInput, Reason: "no tokens"}
	}
	if !state.balanced() {
		reason := "unbalanced parentheses"
		if state.quote != 0 {
			reason = fmt.Sprintf("unterminated %c quote", state.quote)
		}
		return domain.ParsedCommand{}, &ParseError{
			Kind:    ErrMalformedGrouping,
			Command: tokens[0],
			Token:   tokens[len(tokens)-1],
			Reason:  reason,
		}
	}

	cmd := domain.ParsedCommand{
		Name:   tokens[0],
		Params: make(map[string]string),
		Raw:    line,
	}

	for _, tok := range tokens[1:] {
		switch {
		case isQuotedParam(tok) || (isParam(tok) && !strings.ContainsAny(tok, "()")):
			key, value, _ := strings.Cut(tok, "=")
			cmd.Params[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
		case strings.ContainsAny(tok, "()"):
			coords, err := parseGroups(tok)
			if err != nil {
				err.Command = cmd.Name
				return domain.ParsedCommand{}, err
			}
			cmd.Coords = append(cmd.Coords, coords...)
		default:
			return domain.ParsedCommand{}, &ParseError{
				Kind:    ErrUnexpectedToken,
				Command: cmd.Name,
				Token:   tok,
				Reason:  fmt.Sprintf("unexpected token: %s", tok),
			}
		}
	}

	return cmd, nil
}

// isParam reports whether tok is key=value with a non-empty key.
func isParam(tok string) bool {
	key, _, ok := strings.Cut(tok, "=")
	return ok && strings.TrimSpace(key) != ""
}

// isQuotedParam reports whether tok is key=value with the whole value in
// matching quotes and no parenthesis in the key. Parentheses inside such a
// value are literal.
func isQuotedParam(tok string) bool {
	if !isParam(tok) {
		return false
	}
	key, value, _ := strings.Cut(tok, "=")
	if strings.ContainsAny(key, "()") {
		return false
	}
	return isQuoted(strings.TrimSpace(value))
}

func isQuoted(v string) bool {
	return len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0]
}

// parseGroups extracts every (lat,lng) group from a token. Groups do not nest.
// Text outside the groups is ignored; a stray parenthesis is not.
func parseGroups(tok string) ([]domain.Coordinate, *ParseError) {
	var coords []domain.Coordinate
	rest := tok

	for {
		open := strings.IndexByte(rest, '(')
		closing := strings.IndexByte(rest, ')')
		if open < 0 && closing < 0 {
			break
		}
		if open < 0 {
			return nil, malformed(tok, "unmatched ')'")
		}
		if closing < 0 {
			return nil, malformed(tok, "unterminated coordinate group")
		}
		if closing < open {
			return nil, malformed(tok, "unmatched ')'")
		}

		inner := rest[open+1 : closing]
		if strings.ContainsRune(inner, '(') {
			return nil, malformed(tok, fmt.Sprintf("nested or unterminated group in (%s)", inner))
		}

		c, err := parseCoordinate(inner)
		if err != nil {
			return nil, err
		}
		coords = append(coords, c)
		rest = rest[closing+1:]
	}

	return coords, nil
}

func parseCoordinate(inner string) (domain.Coordinate, *ParseError) {
	parts := strings.Split(inner, ",")
	if len(parts) != 2 {
		return domain.Coordinate{}, invalidCoord(inner, fmt.Sprintf("invalid coordinate format: (%s)", inner))
	}

	lat, err := parseDecimal(parts[0])
	if err != nil {
		return domain.Coordinate{}, invalidCoord(inner, fmt.Sprintf("invalid coordinate values: (%s)", inner))
	}
	lng, err := parseDecimal(parts[1])
	if err != nil {
		return domain.Coordinate{}, invalidCoord(inner, fmt.Sprintf("invalid coordinate values: (%s)", inner))
	}

	c := domain.Coordinate{Lat: lat, Lng: lng}
	if err := c.Validate(); err != nil {
		return domain.Coordinate{}, invalidCoord(inner, err.Error())
	}
	return c, nil
}

// parseDecimal parses a base-10 float. ParseFloat alone also takes hex
// mantissas and underscores.
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	digits := strings.TrimLeft(s, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") || strings.ContainsRune(s, '_') {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, 64)
}

// unquote strips exactly one layer of matching quotes. Backslashes are kept.
func unquote(v string) string {
	if isQuoted(v) {
		return v[1 : len(v)-1]
	}
	return v
}

func malformed(tok, reason string) *ParseError {
	return &ParseError{Kind: ErrMalformedGrouping, Token: tok, Reason: reason}
}

func invalidCoord(tok, reason string) *ParseError {
	return &ParseError{Kind: ErrInvalidCoordinate, Token: tok, Reason: reason}
}
