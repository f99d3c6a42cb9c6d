package ticketview

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wsciaroni/opsdeck-cli/internal/domain"
)

// Column is one status lane of the board.
type Column struct {
	Status  domain.Status   `json:"status" yaml:"status"`
	Label   string          `json:"label" yaml:"label"`
	Tickets []domain.Ticket `json:"tickets" yaml:"tickets"`
}

// Board groups tickets into status columns.
type Board struct {
	Columns []Column `json:"columns" yaml:"columns"`
}

// NewBoard groups tickets by status. Columns follow board order and are
// limited to statuses; nil statuses means the active ones. Tickets in other
// statuses are dropped.
func NewBoard(tickets []domain.Ticket, statuses []domain.Status) *Board {
	if len(statuses) == 0 {
		statuses = domain.ActiveStatuses()
	}

	board := &Board{}
	index := make(map[domain.Status]int)
	for _, s := range domain.Statuses {
		if !slices.Contains(statuses, s) {
			continue
		}
		index[s] = len(board.Columns)
		board.Columns = append(board.Columns, Column{Status: s, Label: s.Label(), Tickets: []domain.Ticket{}})
	}

	for _, t := range tickets {
		if i, ok := index[t.StatusID]; ok {
			board.Columns[i].Tickets = append(board.Columns[i].Tickets, t)
		}
	}
	return board
}

const columnWidth = 28

var (
	columnStyle = lipgloss.NewStyle().
			Width(columnWidth).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder())
	columnTitleStyle = lipgloss.NewStyle().Bold(true)
)

// RenderText draws the columns side by side.
func (b *Board) RenderText(w io.Writer, noColor bool) error {
	rendered := make([]string, 0, len(b.Columns))
	for _, col := range b.Columns {
		var sb strings.Builder
		title := fmt.Sprintf("%s (%d)", col.Label, len(col.Tickets))
		if !noColor {
			title = columnTitleStyle.Render(title)
		}
		sb.WriteString(title)
		if len(col.Tickets) == 0 {
			sb.WriteString("\n\nNo tickets")
		}
		for _, t := range col.Tickets {
			sb.WriteString("\n\n")
			sb.WriteString(truncate(t.Title, columnWidth-2))
			sb.WriteString("\n")
			sb.WriteString(fmt.Sprintf("%s · %s", t.PriorityID.Label(), truncate(t.Assignee(), columnWidth-12)))
		}
		rendered = append(rendered, columnStyle.Render(sb.String()))
	}

	_, err := fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
