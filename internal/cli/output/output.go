package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format selects how command results are printed
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates the --output flag
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Table is the human-readable rendering of a result
type Table struct {
	Headers []string
	Rows    [][]string
}

// AddRow appends a row of cells
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Printer writes results in the selected format
type Printer struct {
	w      io.Writer
	format Format
}

func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Format returns the printer's output format
func (p *Printer) Format() Format {
	return p.format
}

// Print renders data as JSON or YAML, or table for the table format
func (p *Printer) Print(data any, table Table) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		return p.printTable(table)
	}
}

// Message prints a line meant for humans. It is suppressed for machine formats.
func (p *Printer) Message(format string, args ...any) {
	if p.format != FormatTable {
		return
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) printTable(table Table) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 3, ' ', 0)
	if len(table.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(table.Headers, "\t"))
	}
	for _, row := range table.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
