// Package boardfile parses the board-file wire format into the
// (rows, columns, labels) triple the match package's constructor
// accepts. It is an external loader, a collaborator of the core
// engine rather than part of it.
package boardfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kgh/memscramble/internal/engine"
)

// Board is the parsed result: dimensions plus row-major labels.
type Board struct {
	Rows    int
	Columns int
	Labels  []string
}

// Parse reads a board-file from r. Line 1 must be "<rows>x<columns>";
// every subsequent non-blank line supplies one label in row-major
// order, and exactly rows*columns of them must be present.
func Parse(r io.Reader) (Board, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return Board{}, fmt.Errorf("boardfile: empty file: %w", engine.ErrParse)
	}
	rows, columns, err := parseDimensions(scanner.Text())
	if err != nil {
		return Board{}, err
	}

	var labels []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return Board{}, fmt.Errorf("boardfile: read: %w", err)
	}

	want := rows * columns
	if len(labels) != want {
		return Board{}, fmt.Errorf("boardfile: want %d labels, got %d: %w", want, len(labels), engine.ErrParse)
	}

	return Board{Rows: rows, Columns: columns, Labels: labels}, nil
}

// ParseString is a convenience wrapper around Parse for in-memory
// board-file text, useful from test drivers and the HTTP transport's
// text/plain room-creation path.
func ParseString(s string) (Board, error) {
	return Parse(strings.NewReader(s))
}

func parseDimensions(line string) (rows, columns int, err error) {
	parts := strings.SplitN(strings.TrimSpace(line), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("boardfile: malformed dimension line %q: %w", line, engine.ErrParse)
	}
	rows, err = strconv.Atoi(parts[0])
	if err != nil || rows < 1 {
		return 0, 0, fmt.Errorf("boardfile: malformed rows in %q: %w", line, engine.ErrParse)
	}
	columns, err = strconv.Atoi(parts[1])
	if err != nil || columns < 1 {
		return 0, 0, fmt.Errorf("boardfile: malformed columns in %q: %w", line, engine.ErrParse)
	}
	return rows, columns, nil
}
