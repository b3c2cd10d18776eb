package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/samirrijal/mapcat/internal/core/ports"
	"github.com/samirrijal/mapcat/internal/core/usecases"
)

// maxLineBytes bounds one input line; long polylines can run to many KB.
const maxLineBytes = 1 << 20

// readCommands executes each line of r until EOF or ctx is done. "help"
// prints the reference to out and never reaches the runner. Rejected and
// oversized lines are logged and do not stop the loop.
func readCommands(ctx context.Context, r io.Reader, out io.Writer, runner ports.CommandRunner) error {
	reader := bufio.NewReaderSize(r, 64*1024)

	lines, failed := 0, 0
	for {
		raw, tooLong, err := nextLine(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if tooLong {
			lines++
			failed++
			slog.Warn("line too long, skipped", "max_bytes", maxLineBytes)
			continue
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lines++
		if line == usecases.CmdHelp {
			fmt.Fprint(out, usecases.HelpText)
			continue
		}
		if _, err := runner.Execute(ctx, "stdin", line); err != nil {
			failed++
		}
	}

	slog.Info("stdin closed", "lines", lines, "rejected", failed)
	return nil
}

// nextLine reads one line without its terminator. Past maxLineBytes the rest
// of the line is discarded and tooLong is set.
func nextLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", false, err
		}
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > maxLineBytes {
				tooLong, buf = true, nil
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}
