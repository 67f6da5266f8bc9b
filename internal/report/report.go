// Package report renders batch reports and flag listings for the command line.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format selects how a report is written.
type Format string

// Output formats.
const (
	TableOut   Format = "table"
	JSONOut    Format = "json"
	ParquetOut Format = "parquet"
)

// ErrUnknownFormat is returned for an output format that is not supported.
var ErrUnknownFormat = errors.New("unknown output format")

// ErrBinaryToTerminal is returned when parquet output would go to a terminal.
var ErrBinaryToTerminal = errors.New("refusing to write parquet to a terminal")

// ParseFormat maps a flag value to a Format. Empty selects the table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", TableOut:
		return TableOut, nil
	case JSONOut, ParquetOut:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (want table, json or parquet)", ErrUnknownFormat, s)
	}
}

// Writer renders reports onto an output stream.
type Writer struct {
	out    io.Writer
	format Format
	color  bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithFormat sets the output format.
func WithFormat(f Format) Option {
	return func(w *Writer) { w.format = f }
}

// WithColor forces colour on or off. Without it colour follows IsTerminal.
func WithColor(on bool) Option {
	return func(w *Writer) { w.color = on }
}

// New returns a Writer for out. Tables are coloured when out is a terminal.
func New(out io.Writer, opts ...Option) *Writer {
	w := &Writer{out: out, format: TableOut, color: IsTerminal(out)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// IsTerminal reports whether out is a file attached to a terminal.
func IsTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (w *Writer) writeJSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
