package ux

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orgRow struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

func (o orgRow) String() string { return o.Name + " (" + o.ID + ")" }

func format(t *testing.T, format string, data any) string {
	t.Helper()
	var buf bytes.Buffer
	f, err := NewFormatter(format, &FormatterOptions{Writer: &buf, NoColor: true})
	require.NoError(t, err)
	require.NoError(t, f.Format(data))
	return buf.String()
}

func TestNewFormatter(t *testing.T) {
	for _, name := range append(Formats, "") {
		_, err := NewFormatter(name, nil)
		assert.NoError(t, err, name)
	}
	_, err := NewFormatter("xml", nil)
	assert.ErrorContains(t, err, "unknown format: xml")
}

func TestFormatEncodings(t *testing.T) {
	row := orgRow{ID: "o1", Name: "Facilities"}

	assert.JSONEq(t, `{"id":"o1","name":"Facilities"}`, format(t, "json", row))
	assert.Equal(t, "id: o1\nname: Facilities\n", format(t, "yaml", row))
	assert.Equal(t, "Facilities (o1)\n", format(t, "text", row))
	assert.Equal(t, "done\n", format(t, "", "done"))
}

func TestFormatTextRejectsPlainStructs(t *testing.T) {
	f, err := NewFormatter("text", &FormatterOptions{Writer: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.ErrorContains(t, f.Format(struct{ N int }{1}), "cannot render")
}

func TestTable(t *testing.T) {
	table := &Table{Headers: []string{"ID", "Name"}, Empty: "No organizations."}

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "No organizations.\n", format(t, "text", table))
		assert.JSONEq(t, `[]`, format(t, "json", table))
	})

	table.AddRow("o1", "Facilities")
	table.AddRow("o22", "IT")

	t.Run("text aligns columns", func(t *testing.T) {
		assert.Equal(t, "ID   Name\no1   Facilities\no22  IT\n", format(t, "text", table))
	})

	t.Run("json keys rows by header", func(t *testing.T) {
		assert.JSONEq(t, `[{"id":"o1","name":"Facilities"},{"id":"o22","name":"IT"}]`, format(t, "json", table))
	})

	t.Run("yaml", func(t *testing.T) {
		assert.Equal(t, "- id: o1\n  name: Facilities\n- id: o22\n  name: IT\n", format(t, "yaml", table))
	})
}
