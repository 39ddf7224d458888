package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Format represents the output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format, wide bool) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{Wide: wide}
	}
}

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	errMark  = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Printer writes results to Out and status lines to Err.
type Printer struct {
	Out    io.Writer
	Err    io.Writer
	Format Format
	fmt    Formatter
}

// NewPrinter creates a Printer.
func NewPrinter(out, errOut io.Writer, format Format, wide bool) *Printer {
	return &Printer{Out: out, Err: errOut, Format: format, fmt: NewFormatter(format, wide)}
}

// Print renders data in the configured format.
func (p *Printer) Print(data any) error {
	return p.fmt.Format(p.Out, data)
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintf(p.Err, "%s %s\n", okMark("✓"), fmt.Sprintf(format, args...))
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.Err, "%s %s\n", warnMark("!"), fmt.Sprintf(format, args...))
}

// Error prints an error line.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintf(p.Err, "%s %s\n", errMark("error:"), fmt.Sprintf(format, args...))
}

// FieldErrors prints one line per field message under a summary.
func (p *Printer) FieldErrors(message string, fields map[string][]string, order []string) {
	if message != "" {
		p.Error("%s", message)
	}
	for _, name := range order {
		for _, msg := range fields[name] {
			fmt.Fprintf(p.Err, "  %s: %s\n", name, msg)
		}
	}
}
