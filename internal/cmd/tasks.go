package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/wsciaroni/opsdeck-cli/internal/domain"
	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
	"github.com/wsciaroni/opsdeck-cli/internal/shell"
	"github.com/wsciaroni/opsdeck-cli/internal/ux"
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task", "scheduled"},
	Short:   "Manage recurring scheduled tasks",
	Long: `Manage recurring scheduled tasks.

A scheduled task opens a new ticket in the organization each time it runs.

Examples:
  opsdeck tasks list
  opsdeck tasks create --title "Test fire alarms" --frequency monthly --start 2026-11-01
  opsdeck tasks update 91ab... --disable
  opsdeck tasks delete 91ab... --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled tasks",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

var tasksCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a scheduled task",
	Args:  cobra.NoArgs,
	RunE:  runTasksCreate,
}

var tasksUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Change a scheduled task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksUpdate,
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a scheduled task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDelete,
}

func init() {
	tasksCreateCmd.Flags().String("title", "", "title of the tickets the task opens")
	tasksCreateCmd.Flags().String("description", "", "description of the tickets the task opens")
	tasksCreateCmd.Flags().String("frequency", "", "daily, weekly, monthly or yearly")
	tasksCreateCmd.Flags().String("start", "", "first run date, YYYY-MM-DD (default: today)")
	tasksCreateCmd.Flags().String("priority", string(domain.PriorityMedium), "low, medium, high or critical")
	tasksCreateCmd.Flags().String("assignee", "", "user id to assign the tickets to")
	tasksCreateCmd.Flags().String("location", "", "where the work happens")
	tasksCreateCmd.Flags().Bool("disabled", false, "create the task paused")
	_ = tasksCreateCmd.MarkFlagRequired("title")
	_ = tasksCreateCmd.MarkFlagRequired("frequency")

	tasksUpdateCmd.Flags().String("title", "", "new title")
	tasksUpdateCmd.Flags().String("description", "", "new description")
	tasksUpdateCmd.Flags().String("frequency", "", "new frequency")
	tasksUpdateCmd.Flags().String("start", "", "new start date, YYYY-MM-DD")
	tasksUpdateCmd.Flags().String("priority", "", "new priority")
	tasksUpdateCmd.Flags().String("assignee", "", "user id to assign")
	tasksUpdateCmd.Flags().String("location", "", "new location")
	tasksUpdateCmd.Flags().Bool("enable", false, "resume the task")
	tasksUpdateCmd.Flags().Bool("disable", false, "pause the task")
	tasksUpdateCmd.MarkFlagsMutuallyExclusive("enable", "disable")

	tasksDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksCreateCmd)
	tasksCmd.AddCommand(tasksUpdateCmd)
	tasksCmd.AddCommand(tasksDeleteCmd)
	rootCmd.AddCommand(tasksCmd)
}

type taskList []domain.ScheduledTask

func (l taskList) RenderText(w io.Writer, noColor bool) error {
	table := &ux.Table{
		Headers: []string{"ID", "Title", "Frequency", "Priority", "Next run", "Enabled"},
		Empty:   "No scheduled tasks.",
	}
	for _, t := range l {
		enabled := "no"
		if t.Enabled {
			enabled = "yes"
		}
		table.AddRow(t.ID, t.Title, string(t.Frequency), t.PriorityID.Label(), t.NextRunAt.Format(dateLayout), enabled)
	}
	return table.RenderText(w, noColor)
}

// parseDate reads a YYYY-MM-DD date as midnight UTC.
func parseDate(flag, value string) (time.Time, error) {
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, oderrors.Wrap(oderrors.ErrCodeAPIInvalidInput, fmt.Sprintf("invalid --%s, want YYYY-MM-DD", flag), err)
	}
	return d, nil
}

func runTasksList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	org, err := a.requireOrg(ctx)
	if err != nil {
		return err
	}

	tasks, err := a.client.ListScheduledTasks(ctx, org.ID)
	if err != nil {
		return err
	}
	return a.render(taskList(tasks))
}

// createTaskFromFlags builds the create body without the organization.
func createTaskFromFlags(cmd *cobra.Command, now time.Time) (domain.CreateScheduledTaskRequest, error) {
	flags := cmd.Flags()
	title, _ := flags.GetString("title")
	description, _ := flags.GetString("description")
	frequency, _ := flags.GetString("frequency")
	start, _ := flags.GetString("start")
	priority, _ := flags.GetString("priority")
	assignee, _ := flags.GetString("assignee")
	location, _ := flags.GetString("location")
	disabled, _ := flags.GetBool("disabled")

	req := domain.CreateScheduledTaskRequest{
		Title:       title,
		Description: description,
		Frequency:   domain.Frequency(frequency),
		PriorityID:  domain.Priority(priority),
		Location:    location,
		Enabled:     !disabled,
	}
	if assignee != "" {
		req.AssigneeUserID = &assignee
	}

	if err := req.Frequency.Validate(); err != nil {
		return req, oderrors.Wrap(oderrors.ErrCodeAPIInvalidInput, "invalid --frequency", err)
	}
	if err := req.PriorityID.Validate(); err != nil {
		return req, oderrors.Wrap(oderrors.ErrCodeAPIInvalidInput, "invalid --priority", err)
	}

	if start == "" {
		y, m, d := now.Date()
		req.StartDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	} else {
		date, err := parseDate("start", start)
		if err != nil {
			return req, err
		}
		req.StartDate = date
	}
	return req, nil
}

func runTasksCreate(cmd *cobra.Command, args []string) error {
	req, err := createTaskFromFlags(cmd, time.Now())
	if err != nil {
		return err
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

	task, err := a.client.CreateScheduledTask(ctx, req)
	if err != nil {
		return err
	}
	a.success("Scheduled %q %s, first run %s", task.Title, task.Frequency, task.NextRunAt.Format(dateLayout))
	return nil
}

// updateTaskFromFlags builds a patch from the flags that were set.
func updateTaskFromFlags(cmd *cobra.Command) (domain.UpdateScheduledTaskRequest, error) {
	var req domain.UpdateScheduledTaskRequest
	flags := cmd.Flags()
	changed := false

	str := func(name string, dst **string) {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			*dst = &v
			changed = true
		}
	}
	str("title", &req.Title)
	str("description", &req.Description)
	str("assignee", &req.AssigneeUserID)
	str("location", &req.Location)

	if flags.Changed("frequency") {
		v, _ := flags.GetString("frequency")
		f := domain.Frequency(v)
		if err := f.Validate(); err != nil {
			return req, oderrors.Wrap(oderrors.ErrCodeAPIInvalidInput, "invalid --frequency", err)
		}
		req.Frequency = &f
		changed = true
	}
	if flags.Changed("priority") {
		v, _ := flags.GetString("priority")
		p, err := domain.NewPriority(v)
		if err != nil {
			return req, oderrors.Wrap(oderrors.ErrCodeAPIInvalidInput, "invalid --priority", err)
		}
		req.PriorityID = &p
		changed = true
	}
	if flags.Changed("start") {
		v, _ := flags.GetString("start")
		d, err := parseDate("start", v)
		if err != nil {
			return req, err
		}
		req.StartDate = &d
		changed = true
	}
	if flags.Changed("enable") || flags.Changed("disable") {
		enable, _ := flags.GetBool("enable")
		disable, _ := flags.GetBool("disable")
		v := enable && !disable
		req.Enabled = &v
		changed = true
	}

	if !changed {
		return req, oderrors.New(oderrors.ErrCodeAPIInvalidInput, "nothing to update")
	}
	return req, nil
}

func runTasksUpdate(cmd *cobra.Command, args []string) error {
	req, err := updateTaskFromFlags(cmd)
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

	task, err := a.client.UpdateScheduledTask(ctx, args[0], req)
	if err != nil {
		return err
	}
	a.success("Updated scheduled task %s", task.ID)
	return nil
}

func runTasksDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	ok, err := a.confirm(fmt.Sprintf("Delete scheduled task %s?", args[0]), yes)
	if err != nil || !ok {
		return err
	}

	if err := a.client.DeleteScheduledTask(ctx, args[0]); err != nil {
		return err
	}
	a.success("Deleted scheduled task %s", args[0])
	return nil
}
