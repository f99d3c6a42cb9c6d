package cmd

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wsciaroni/opsdeck-cli/internal/domain"
	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
	"github.com/wsciaroni/opsdeck-cli/internal/shell"
	"github.com/wsciaroni/opsdeck-cli/internal/tui"
	"github.com/wsciaroni/opsdeck-cli/internal/ux"
)

var commentsCmd = &cobra.Command{
	Use:     "comments",
	Aliases: []string{"comment"},
	Short:   "Read and add ticket comments",
	Long: `Read and add ticket comments.

Examples:
  opsdeck comments list 6f2d...
  opsdeck comments add 6f2d... "Parts ordered, fitting Tuesday"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var commentsListCmd = &cobra.Command{
	Use:   "list <ticket-id>",
	Short: "List a ticket's comments, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommentsList,
}

var commentsAddCmd = &cobra.Command{
	Use:   "add <ticket-id> [body]",
	Short: "Comment on a ticket",
	Long: `Comment on a ticket.

Without a body, an interactive terminal opens a text area.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCommentsAdd,
}

func init() {
	commentsCmd.AddCommand(commentsListCmd)
	commentsCmd.AddCommand(commentsAddCmd)
	rootCmd.AddCommand(commentsCmd)
}

type commentList []domain.Comment

func (l commentList) RenderText(w io.Writer, noColor bool) error {
	table := &ux.Table{Headers: []string{"When", "Author", "Comment"}, Empty: "No comments yet."}
	for _, c := range l {
		table.AddRow(c.CreatedAt.Format("2006-01-02 15:04"), c.User.Name, strings.ReplaceAll(c.Body, "\n", " "))
	}
	return table.RenderText(w, noColor)
}

func runCommentsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	comments, err := a.client.ListComments(ctx, args[0])
	if err != nil {
		return err
	}
	return a.render(commentList(comments))
}

func runCommentsAdd(cmd *cobra.Command, args []string) error {
	var body string
	if len(args) == 2 {
		body = args[1]
	}

	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	if strings.TrimSpace(body) == "" {
		if !tuiShouldPrompt() {
			return oderrors.New(oderrors.ErrCodeAPIInvalidInput, "comment body is required")
		}
		body, err = tuiPrompt(tui.Prompt{Message: "Comment", Multiline: true, Required: true})
		if err != nil {
			return err
		}
	}

	comment, err := a.client.AddComment(ctx, args[0], body)
	if err != nil {
		return err
	}
	a.success("Comment %s added", comment.ID)
	return nil
}
