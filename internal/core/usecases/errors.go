package usecases

import (
	"errors"
	"fmt"

	"github.com/samirrijal/mapcat/internal/core/command"
	"github.com/samirrijal/mapcat/internal/core/domain"
)

// Command failure kinds. Match them with errors.Is.
var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrArityMismatch    = errors.New("arity mismatch")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrDuplicateID      = domain.ErrDuplicateID
	ErrAmbiguousTarget  = errors.New("ambiguous target")
	ErrNotFound         = errors.New("not found")
)

// CommandError is a failure of a syntactically valid command.
type CommandError struct {
	Command string
	Kind    error
	Reason  string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

func (e *CommandError) Unwrap() error { return e.Kind }

func newCommandError(cmd string, kind error, format string, args ...any) *CommandError {
	return &CommandError{Command: cmd, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

var failureKinds = []struct {
	err  error
	name string
}{
	{command.ErrEmptyInput, "empty_input"},
	{command.ErrInvalidCoordinate, "invalid_coordinate"},
	{command.ErrMalformedGrouping, "malformed_grouping"},
	{command.ErrUnexpectedToken, "unexpected_token"},
	{ErrUnknownCommand, "unknown_command"},
	{ErrArityMismatch, "arity_mismatch"},
	{ErrInvalidParameter, "invalid_parameter"},
	{ErrDuplicateID, "duplicate_id"},
	{ErrAmbiguousTarget, "ambiguous_target"},
	{ErrNotFound, "not_found"},
}

// FailureKind names the failure kind of err for logs, metric labels and API
// bodies. Unclassified errors are "internal".
func FailureKind(err error) string {
	for _, k := range failureKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}

// FailureCommand returns the command name a failure refers to, if known.
func FailureCommand(err error) string {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Command
	}
	var pe *command.ParseError
	if errors.As(err, &pe) {
		return pe.Command
	}
	return ""
}

// FailureReason returns the human-readable reason without the command prefix.
func FailureReason(err error) string {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	var pe *command.ParseError
	if errors.As(err, &pe) {
		return pe.Reason
	}
	return err.Error()
}
