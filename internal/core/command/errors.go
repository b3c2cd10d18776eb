package command

import (
	"errors"
	"fmt"
)

// Parse failure kinds. Match them with errors.Is.
var (
	ErrEmptyInput        = errors.New("empty input")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrMalformedGrouping = errors.New("malformed grouping")
	ErrUnexpectedToken   = errors.New("unexpected token")
)

// ParseError describes why a line could not be parsed.
type ParseError struct {
	Kind    error
	Command string // empty when the line had no tokens
	Token   string // offending token, if any
	Reason  string
}

func (e *ParseError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("parse: %s", e.Reason)
	}
	return fmt.Sprintf("parse %s: %s", e.Command, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Kind }
