package ux

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
)

// Table is a column-aligned text table. In JSON and YAML it is a list of
// objects keyed by lower-cased header.
type Table struct {
	Headers []string
	Rows    [][]string
	// Empty replaces the table when there are no rows.
	Empty string
}

var headerStyle = lipgloss.NewStyle().Bold(true)

func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

func (t *Table) RenderText(w io.Writer, noColor bool) error {
	if len(t.Rows) == 0 && t.Empty != "" {
		_, err := fmt.Fprintln(w, t.Empty)
		return err
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	header, body, _ := strings.Cut(buf.String(), "\n")
	if !noColor {
		header = headerStyle.Render(header)
	}
	_, err := io.WriteString(w, header+"\n"+body)
	return err
}

func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.records())
}

func (t *Table) MarshalYAML() (any, error) {
	return t.records(), nil
}

func (t *Table) records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(row) {
				rec[strings.ToLower(h)] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}
