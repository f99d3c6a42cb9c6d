package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wsciaroni/opsdeck-cli/internal/domain"
	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
	"github.com/wsciaroni/opsdeck-cli/internal/shell"
	"github.com/wsciaroni/opsdeck-cli/internal/ticketview"
	"github.com/wsciaroni/opsdeck-cli/internal/tui"
	"github.com/wsciaroni/opsdeck-cli/internal/ux"
)

const dateLayout = "2006-01-02"

var ticketsCmd = &cobra.Command{
	Use:     "tickets",
	Aliases: []string{"ticket", "t"},
	Short:   "List, view and update tickets",
	Long: `List, view and update tickets in the active organization.

By default only active tickets (new, in progress, on hold) are shown.

Examples:
  opsdeck tickets list
  opsdeck tickets list --status done --sort priority-desc
  opsdeck tickets board
  opsdeck tickets show 6f2d...
  opsdeck tickets create --title "Leaking tap" --priority high
  opsdeck tickets update 6f2d... --status in_progress
  opsdeck tickets export --output tickets.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var ticketsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tickets",
	Args:    cobra.NoArgs,
	RunE:    runTicketsList,
}

var ticketsBoardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show tickets as a board grouped by status",
	Args:  cobra.NoArgs,
	RunE:  runTicketsBoard,
}

var ticketsShowCmd = &cobra.Command{
	Use:   "show <ticket-id>",
	Short: "Show a ticket and its comments",
	Args:  cobra.ExactArgs(1),
	RunE:  runTicketsShow,
}

var ticketsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a ticket",
	Long: `Open a ticket in the active organization.

Without --title, an interactive terminal prompts for the title,
description and priority.`,
	Args: cobra.NoArgs,
	RunE: runTicketsCreate,
}

var ticketsUpdateCmd = &cobra.Command{
	Use:   "update <ticket-id>",
	Short: "Change a ticket's fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runTicketsUpdate,
}

var ticketsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the organization's tickets as CSV",
	Args:  cobra.NoArgs,
	RunE:  runTicketsExport,
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("status", nil, "statuses to include (default: new, in_progress, on_hold)")
	cmd.Flags().StringSlice("priority", nil, "priorities to include (default: all)")
	cmd.Flags().String("assignee", "", "only tickets assigned to this user id")
	cmd.Flags().String("search", "", "keyword to match in title or description")
	cmd.Flags().String("sort", "created_at-desc", "sort as field[-asc|-desc]: created_at, updated_at, priority, status, title")
}

func init() {
	addFilterFlags(ticketsListCmd)
	addFilterFlags(ticketsBoardCmd)

	ticketsCreateCmd.Flags().String("title", "", "ticket title")
	ticketsCreateCmd.Flags().String("description", "", "ticket description")
	ticketsCreateCmd.Flags().String("priority", string(domain.PriorityMedium), "low, medium, high or critical")
	ticketsCreateCmd.Flags().String("location", "", "where the issue is")
	ticketsCreateCmd.Flags().Bool("sensitive", false, "hide the ticket from public views")

	ticketsUpdateCmd.Flags().String("title", "", "new title")
	ticketsUpdateCmd.Flags().String("description", "", "new description")
	ticketsUpdateCmd.Flags().String("status", "", "new status: new, in_progress, on_hold, done or canceled")
	ticketsUpdateCmd.Flags().String("priority", "", "new priority: low, medium, high or critical")
	ticketsUpdateCmd.Flags().String("assignee", "", "user id to assign")
	ticketsUpdateCmd.Flags().String("location", "", "new location")
	ticketsUpdateCmd.Flags().Bool("sensitive", false, "hide the ticket from public views")

	ticketsExportCmd.Flags().StringP("output", "O", "", "write to this file instead of stdout")

	ticketsCmd.AddCommand(ticketsListCmd)
	ticketsCmd.AddCommand(ticketsBoardCmd)
	ticketsCmd.AddCommand(ticketsShowCmd)
	ticketsCmd.AddCommand(ticketsCreateCmd)
	ticketsCmd.AddCommand(ticketsUpdateCmd)
	ticketsCmd.AddCommand(ticketsExportCmd)

	rootCmd.AddCommand(ticketsCmd)
}

// filterFromFlags reads the list and board filter flags.
func filterFromFlags(cmd *cobra.Command) (ticketview.Filter, error) {
	f := ticketview.DefaultFilter()

	statuses, _ := cmd.Flags().GetStringSlice("status")
	for _, s := range statuses {
		f.Statuses = append(f.Statuses, domain.Status(strings.TrimSpace(s)))
	}
	priorities, _ := cmd.Flags().GetStringSlice("priority")
	for _, p := range priorities {
		f.Priorities = append(f.Priorities, domain.Priority(strings.TrimSpace(p)))
	}
	f.AssigneeID, _ = cmd.Flags().GetString("assignee")
	f.Search, _ = cmd.Flags().GetString("search")

	sort, _ := cmd.Flags().GetString("sort")
	field, order, err := ticketview.ParseSort(sort)
	if err != nil {
		return f, oderrors.Wrap(oderrors.ErrCodeAPIInvalidInput, "invalid --sort", err)
	}
	f.SortBy, f.Order = field, order

	if err := f.Validate(); err != nil {
		return f, oderrors.Wrap(oderrors.ErrCodeAPIInvalidInput, "invalid filter", err)
	}
	return f, nil
}

// fetchTickets lists the active organization's tickets through f.
func (a *app) fetchTickets(cmd *cobra.Command, f ticketview.Filter) ([]domain.Ticket, error) {
	ctx := cmd.Context()
	org, err := a.requireOrg(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := a.client.ListTickets(ctx, f.Query(org.ID))
	if err != nil {
		return nil, err
	}
	// The server may ignore filters it does not support.
	return f.Apply(tickets), nil
}

// ticketList renders as a table in text mode and as the raw tickets otherwise.
type ticketList []domain.Ticket

func (l ticketList) RenderText(w io.Writer, noColor bool) error {
	table := &ux.Table{
		Headers: []string{"ID", "Title", "Status", "Priority", "Assignee", "Created"},
		Empty:   "No tickets match.",
	}
	for _, t := range l {
		table.AddRow(t.ID, t.Title, t.StatusID.Label(), t.PriorityID.Label(), t.Assignee(), t.CreatedAt.Format(dateLayout))
	}
	return table.RenderText(w, noColor)
}

func runTicketsList(cmd *cobra.Command, args []string) error {
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	tickets, err := a.fetchTickets(cmd, f)
	if err != nil {
		return err
	}
	return a.render(ticketList(tickets))
}

func runTicketsBoard(cmd *cobra.Command, args []string) error {
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	tickets, err := a.fetchTickets(cmd, f)
	if err != nil {
		return err
	}
	return a.render(ticketview.NewBoard(tickets, f.Statuses))
}

// ticketDetail is a ticket with its comment thread.
type ticketDetail struct {
	Ticket   *domain.Ticket   `json:"ticket" yaml:"ticket"`
	Comments []domain.Comment `json:"comments" yaml:"comments"`
}

func (d ticketDetail) RenderText(w io.Writer, noColor bool) error {
	t := d.Ticket
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", t.Title)
	fmt.Fprintf(&b, "ID:        %s\n", t.ID)
	fmt.Fprintf(&b, "Status:    %s\n", t.StatusID.Label())
	fmt.Fprintf(&b, "Priority:  %s\n", t.PriorityID.Label())
	fmt.Fprintf(&b, "Assignee:  %s\n", t.Assignee())
	if t.ReporterName != "" {
		fmt.Fprintf(&b, "Reporter:  %s\n", t.ReporterName)
	}
	if t.Location != "" {
		fmt.Fprintf(&b, "Location:  %s\n", t.Location)
	}
	if t.Sensitive {
		b.WriteString("Sensitive: yes\n")
	}
	fmt.Fprintf(&b, "Created:   %s\n", t.CreatedAt.Format(dateLayout))
	if t.CompletedAt != nil {
		fmt.Fprintf(&b, "Completed: %s\n", t.CompletedAt.Format(dateLayout))
	}
	for _, f := range t.Files {
		fmt.Fprintf(&b, "File:      %s (%d bytes)\n", f.Filename, f.Size)
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Description)
	}

	b.WriteString("\nComments\n")
	if len(d.Comments) == 0 {
		b.WriteString("  none\n")
	}
	for _, c := range d.Comments {
		fmt.Fprintf(&b, "\n  %s, %s\n", c.User.Name, c.CreatedAt.Format("2006-01-02 15:04"))
		for _, line := range strings.Split(c.Body, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func runTicketsShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	ticket, err := a.client.GetTicket(ctx, args[0])
	if err != nil {
		return err
	}
	comments, err := a.client.ListComments(ctx, args[0])
	if err != nil {
		return err
	}
	return a.render(ticketDetail{Ticket: ticket, Comments: comments})
}

// promptTicket fills in title, description and priority interactively.
func promptTicket(req *domain.CreateTicketRequest) error {
	title, err := tuiPrompt(tui.Prompt{Message: "Title", Placeholder: "What needs attention?", Required: true})
	if err != nil {
		return err
	}
	description, err := tuiPrompt(tui.Prompt{Message: "Description", Multiline: true})
	if err != nil {
		return err
	}
	priority, err := tuiSelect("Priority", tui.PriorityOptions())
	if err != nil {
		return err
	}
	req.Title = title
	req.Description = description
	req.PriorityID = domain.Priority(priority)
	return nil
}

func runTicketsCreate(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	priority, _ := cmd.Flags().GetString("priority")
	location, _ := cmd.Flags().GetString("location")
	sensitive, _ := cmd.Flags().GetBool("sensitive")

	req := domain.CreateTicketRequest{
		Title:       strings.TrimSpace(title),
		Description: description,
		PriorityID:  domain.Priority(priority),
		Location:    location,
		Sensitive:   sensitive,
	}

	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	org, err := a.requireOrg(ctx)
	if err != nil {
		return err
	}
	req.OrganizationID = org.ID

	if req.Title == "" {
		if !tuiShouldPrompt() {
			return oderrors.New(oderrors.ErrCodeAPIInvalidInput, "ticket title is required").
				WithSuggestion("Pass --title \"...\"")
		}
		if err := promptTicket(&req); err != nil {
			return err
		}
	}
	if err := req.PriorityID.Validate(); err != nil {
		return oderrors.Wrap(oderrors.ErrCodeAPIInvalidInput, "invalid --priority", err)
	}

	ticket, err := a.client.CreateTicket(ctx, req)
	if err != nil {
		return err
	}
	a.success("Opened ticket %s in %s", ticket.ID, org.Name)
	if a.flags.Quiet {
		return nil
	}
	return a.render(ticketDetail{Ticket: ticket})
}

// updateFromFlags builds a patch from the flags that were set.
func updateFromFlags(cmd *cobra.Command) (domain.UpdateTicketRequest, error) {
	var req domain.UpdateTicketRequest
	flags := cmd.Flags()

	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		req.Title = &v
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		req.Description = &v
	}
	if flags.Changed("status") {
		v, _ := flags.GetString("status")
		s, err := domain.NewStatus(v)
		if err != nil {
			return req, oderrors.Wrap(oderrors.ErrCodeAPIInvalidInput, "invalid --status", err)
		}
		req.StatusID = &s
	}
	if flags.Changed("priority") {
		v, _ := flags.GetString("priority")
		p, err := domain.NewPriority(v)
		if err != nil {
			return req, oderrors.Wrap(oderrors.ErrCodeAPIInvalidInput, "invalid --priority", err)
		}
		req.PriorityID = &p
	}
	if flags.Changed("assignee") {
		v, _ := flags.GetString("assignee")
		req.AssigneeID = &v
	}
	if flags.Changed("location") {
		v, _ := flags.GetString("location")
		req.Location = &v
	}
	if flags.Changed("sensitive") {
		v, _ := flags.GetBool("sensitive")
		req.Sensitive = &v
	}

	if req.IsEmpty() {
		return req, oderrors.New(oderrors.ErrCodeAPIInvalidInput, "nothing to update").
			WithSuggestion("Pass at least one of --title, --description, --status, --priority, --assignee, --location, --sensitive")
	}
	return req, nil
}

func runTicketsUpdate(cmd *cobra.Command, args []string) error {
	req, err := updateFromFlags(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	ticket, err := a.client.UpdateTicket(ctx, args[0], req)
	if err != nil {
		return err
	}
	a.success("Updated ticket %s", ticket.ID)
	return nil
}

func runTicketsExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	org, err := a.requireOrg(ctx)
	if err != nil {
		return err
	}

	data, err := a.client.ExportTickets(ctx, org.ID)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		_, err := a.out.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o600); err != nil {
		return oderrors.Wrap(oderrors.ErrCodeFileWriteFailed, "failed to write export", err)
	}
	a.success("Exported %s tickets to %s", org.Name, output)
	return nil
}
