package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wsciaroni/opsdeck-cli/internal/domain"
	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
	"github.com/wsciaroni/opsdeck-cli/internal/shell"
)

var publicCmd = &cobra.Command{
	Use:   "public",
	Short: "Browse a public view or submit through a share link",
	Long: `Browse an organization's public view or submit a ticket through its
share link. These commands use the link token and need no sign-in.

Examples:
  opsdeck public org --token 8c1e...
  opsdeck public tickets --token 8c1e... --search boiler
  opsdeck public show 6f2d... --token 8c1e...
  opsdeck public submit --token 4ab0... --title "Broken window" --email jo@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var publicOrgCmd = &cobra.Command{
	Use:   "org",
	Short: "Show the organization behind a public view token",
	Args:  cobra.NoArgs,
	RunE:  runPublicOrg,
}

var publicTicketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "List the tickets visible through a public view token",
	Args:  cobra.NoArgs,
	RunE:  runPublicTickets,
}

var publicShowCmd = &cobra.Command{
	Use:   "show <ticket-id>",
	Short: "Show a ticket through a public view token",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublicShow,
}

var publicCommentsCmd = &cobra.Command{
	Use:   "comments <ticket-id>",
	Short: "List a ticket's comments through a public view token",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublicComments,
}

var publicSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a ticket through a share link token",
	Args:  cobra.NoArgs,
	RunE:  runPublicSubmit,
}

func init() {
	for _, c := range []*cobra.Command{publicOrgCmd, publicTicketsCmd, publicShowCmd, publicCommentsCmd, publicSubmitCmd} {
		c.Flags().String("token", "", "link token")
		_ = c.MarkFlagRequired("token")
		publicCmd.AddCommand(c)
	}
	publicTicketsCmd.Flags().String("search", "", "keyword to match")

	publicSubmitCmd.Flags().String("title", "", "ticket title")
	publicSubmitCmd.Flags().String("description", "", "ticket description")
	publicSubmitCmd.Flags().String("priority", string(domain.PriorityMedium), "low, medium, high or critical")
	publicSubmitCmd.Flags().String("name", "", "your name")
	publicSubmitCmd.Flags().String("email", "", "your email, for follow-up")
	_ = publicSubmitCmd.MarkFlagRequired("title")

	rootCmd.AddCommand(publicCmd)
}

func runPublicOrg(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	token, _ := cmd.Flags().GetString("token")

	org, err := a.client.PublicOrganization(cmd.Context(), token)
	if err != nil {
		return err
	}
	return a.render(publicOrgView(*org))
}

type publicOrgView domain.PublicOrganization

func (v publicOrgView) String() string {
	return fmt.Sprintf("%s (%s)", v.Name, v.Slug)
}

func runPublicTickets(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	token, _ := cmd.Flags().GetString("token")
	search, _ := cmd.Flags().GetString("search")

	tickets, err := a.client.PublicTickets(cmd.Context(), token, search)
	if err != nil {
		return err
	}
	return a.render(ticketList(tickets))
}

func runPublicShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	token, _ := cmd.Flags().GetString("token")

	ticket, err := a.client.PublicTicket(ctx, token, args[0])
	if err != nil {
		return err
	}
	comments, err := a.client.PublicComments(ctx, token, args[0])
	if err != nil {
		return err
	}
	return a.render(ticketDetail{Ticket: ticket, Comments: comments})
}

func runPublicComments(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	token, _ := cmd.Flags().GetString("token")

	comments, err := a.client.PublicComments(cmd.Context(), token, args[0])
	if err != nil {
		return err
	}
	return a.render(commentList(comments))
}

func runPublicSubmit(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	token, _ := flags.GetString("token")
	title, _ := flags.GetString("title")
	description, _ := flags.GetString("description")
	priority, _ := flags.GetString("priority")
	name, _ := flags.GetString("name")
	email, _ := flags.GetString("email")

	req := domain.PublicTicketRequest{
		Token:       token,
		Title:       strings.TrimSpace(title),
		Description: description,
		PriorityID:  domain.Priority(priority),
		Name:        name,
		Email:       email,
	}
	if req.Title == "" {
		return oderrors.New(oderrors.ErrCodeAPIInvalidInput, "ticket title is required")
	}
	if err := req.PriorityID.Validate(); err != nil {
		return oderrors.Wrap(oderrors.ErrCodeAPIInvalidInput, "invalid --priority", err)
	}

	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ticket, err := a.client.SubmitPublicTicket(cmd.Context(), req)
	if err != nil {
		return err
	}
	a.success("Submitted ticket %s", ticket.ID)
	return nil
}
