package cmd

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wsciaroni/opsdeck-cli/internal/api"
	"github.com/wsciaroni/opsdeck-cli/internal/domain"
	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
	"github.com/wsciaroni/opsdeck-cli/internal/shell"
	"github.com/wsciaroni/opsdeck-cli/internal/ux"
)

var orgCmd = &cobra.Command{
	Use:     "org",
	Aliases: []string{"orgs", "organization"},
	Short:   "Work with organizations and their members",
	Long: `Work with organizations and their members.

Every ticket, comment and scheduled task belongs to an organization. The
active organization is remembered between runs; pass --org to act on a
different one for a single command.

Examples:
  opsdeck org list
  opsdeck org switch acme
  opsdeck org create "Acme Facilities"
  opsdeck org members
  opsdeck org add-member jo@example.com --role staff`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var orgListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your organizations",
	Args:  cobra.NoArgs,
	RunE:  runOrgList,
}

var orgSwitchCmd = &cobra.Command{
	Use:   "switch [id|slug]",
	Short: "Change the active organization",
	Long: `Change the active organization.

Without an argument an interactive picker is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrgSwitch,
}

var orgCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an organization and make it active",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrgCreate,
}

var orgMembersCmd = &cobra.Command{
	Use:   "members",
	Short: "List members of the organization",
	Args:  cobra.NoArgs,
	RunE:  runOrgMembers,
}

var orgAddMemberCmd = &cobra.Command{
	Use:   "add-member <email>",
	Short: "Add an existing user to the organization",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrgAddMember,
}

var orgRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member <user-id>",
	Short: "Remove a member from the organization",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrgRemoveMember,
}

var orgSetRoleCmd = &cobra.Command{
	Use:   "set-role <user-id> <role>",
	Short: "Change a member's role (owner, admin, manager, staff, member)",
	Args:  cobra.ExactArgs(2),
	RunE:  runOrgSetRole,
}

var orgShareCmd = &cobra.Command{
	Use:   "share",
	Short: "Show or change the ticket submission share link",
	Long: `Show or change the share link that lets anyone submit tickets to the
organization without an account.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOrgLink(cmd, api.LinkShare)
	},
}

var orgPublicViewCmd = &cobra.Command{
	Use:   "public-view",
	Short: "Show or change the read-only public view link",
	Long: `Show or change the public view link that lets anyone browse the
organization's non-sensitive tickets.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOrgLink(cmd, api.LinkPublicView)
	},
}

func init() {
	orgCreateCmd.Flags().String("slug", "", "URL slug (default: derived from the name)")
	orgAddMemberCmd.Flags().String("role", domain.RoleMember, "role for the new member")
	orgRemoveMemberCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	for _, c := range []*cobra.Command{orgShareCmd, orgPublicViewCmd} {
		c.Flags().Bool("enable", false, "turn the link on")
		c.Flags().Bool("disable", false, "turn the link off")
		c.Flags().Bool("regenerate", false, "issue a new token, invalidating the old link")
		c.MarkFlagsMutuallyExclusive("enable", "disable", "regenerate")
	}

	orgCmd.AddCommand(orgListCmd)
	orgCmd.AddCommand(orgSwitchCmd)
	orgCmd.AddCommand(orgCreateCmd)
	orgCmd.AddCommand(orgMembersCmd)
	orgCmd.AddCommand(orgAddMemberCmd)
	orgCmd.AddCommand(orgRemoveMemberCmd)
	orgCmd.AddCommand(orgSetRoleCmd)
	orgCmd.AddCommand(orgShareCmd)
	orgCmd.AddCommand(orgPublicViewCmd)

	rootCmd.AddCommand(orgCmd)
}

func runOrgList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	if _, err := a.requireUser(cmd.Context()); err != nil {
		return err
	}

	var activeID string
	if org := a.session.ActiveOrganization(); org != nil {
		activeID = org.ID
	}

	table := &ux.Table{
		Headers: []string{"", "ID", "Name", "Slug", "Role"},
		Empty:   "You are not a member of any organization. Run 'opsdeck org create <name>' to start one.",
	}
	for _, o := range a.session.Organizations() {
		marker := ""
		if o.ID == activeID {
			marker = "*"
		}
		table.AddRow(marker, o.ID, o.Name, o.Slug, o.Role)
	}
	return a.render(table)
}

func runOrgSwitch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	if _, err := a.requireUser(cmd.Context()); err != nil {
		return err
	}

	orgs := a.session.Organizations()
	if len(orgs) == 0 {
		return oderrors.NewNoOrganizationError()
	}

	var target string
	if len(args) == 1 {
		target = args[0]
	} else {
		if !tuiShouldPrompt() {
			return oderrors.New(oderrors.ErrCodeAPIInvalidInput, "organization id or slug required").
				WithSuggestion("Run 'opsdeck org list' and pass an id: opsdeck org switch <id>")
		}
		var activeID string
		if org := a.session.ActiveOrganization(); org != nil {
			activeID = org.ID
		}
		target, err = tuiSelectOrg(orgs, activeID)
		if err != nil {
			return err
		}
	}

	org, ok := lookupOrganization(orgs, target)
	if !ok {
		return oderrors.NewOrgNotMemberError(target)
	}

	a.session.SwitchOrganization(org.ID)
	a.success("Switched to %s", org.Name)
	return nil
}

// lookupOrganization matches by id first, then by slug.
func lookupOrganization(orgs []domain.Organization, idOrSlug string) (domain.Organization, bool) {
	if org, ok := domain.FindOrganization(orgs, idOrSlug); ok {
		return org, true
	}
	for _, o := range orgs {
		if o.Slug == idOrSlug {
			return o, true
		}
	}
	return domain.Organization{}, false
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases name and joins its words with hyphens.
func slugify(name string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func runOrgCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	name := strings.TrimSpace(args[0])
	if name == "" {
		return oderrors.New(oderrors.ErrCodeOrgNameRequired, "organization name is required")
	}
	slug, _ := cmd.Flags().GetString("slug")
	if slug == "" {
		slug = slugify(name)
	}

	created, err := a.client.CreateOrganization(ctx, api.CreateOrganizationRequest{Name: name, Slug: slug})
	if err != nil {
		return err
	}

	if err := a.session.RefreshOrganizations(ctx); err != nil {
		return err
	}
	a.session.SwitchOrganization(created.ID)

	a.success("Created %s (%s) and made it active", created.Name, created.Slug)
	return nil
}

func runOrgMembers(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	org, err := a.requireOrg(ctx)
	if err != nil {
		return err
	}

	members, err := a.client.ListMembers(ctx, org.ID)
	if err != nil {
		return err
	}

	table := &ux.Table{Headers: []string{"ID", "Name", "Email", "Role"}, Empty: "No members."}
	for _, m := range members {
		table.AddRow(m.ID, m.Name, m.Email, m.Role)
	}
	return a.render(table)
}

func runOrgAddMember(cmd *cobra.Command, args []string) error {
	role, _ := cmd.Flags().GetString("role")
	if err := domain.ValidateRole(role); err != nil {
		return oderrors.Wrap(oderrors.ErrCodeAPIInvalidInput, "invalid --role", err)
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

	if err := a.client.AddMember(ctx, org.ID, args[0], role); err != nil {
		return err
	}
	a.success("Added %s to %s as %s", args[0], org.Name, role)
	return nil
}

func runOrgRemoveMember(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	org, err := a.requireOrg(ctx)
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	ok, err := a.confirm(fmt.Sprintf("Remove %s from %s?", args[0], org.Name), yes)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := a.client.RemoveMember(ctx, org.ID, args[0]); err != nil {
		return err
	}
	a.success("Removed %s from %s", args[0], org.Name)
	return nil
}

func runOrgSetRole(cmd *cobra.Command, args []string) error {
	if err := domain.ValidateRole(args[1]); err != nil {
		return oderrors.Wrap(oderrors.ErrCodeAPIInvalidInput, "invalid role", err)
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

	if err := a.client.UpdateMemberRole(ctx, org.ID, args[0], args[1]); err != nil {
		return err
	}
	a.success("%s is now %s in %s", args[0], args[1], org.Name)
	return nil
}

// linkView is the output of 'org share' and 'org public-view'.
type linkView struct {
	Kind    api.LinkKind `json:"kind" yaml:"kind"`
	Enabled bool         `json:"enabled" yaml:"enabled"`
	Token   string       `json:"token,omitempty" yaml:"token,omitempty"`
	URL     string       `json:"url,omitempty" yaml:"url,omitempty"`
}

func (v linkView) String() string {
	if !v.Enabled {
		return fmt.Sprintf("The %s link is disabled.", v.Kind)
	}
	if v.URL == "" {
		return fmt.Sprintf("The %s link is enabled but has no token yet. Run with --regenerate.", v.Kind)
	}
	return fmt.Sprintf("The %s link is enabled: %s", v.Kind, v.URL)
}

// linkURL builds the browser address for a link token.
func linkURL(serverURL string, kind api.LinkKind, token string) string {
	if token == "" {
		return ""
	}
	if kind == api.LinkShare {
		return fmt.Sprintf("%s/submit-ticket?token=%s", serverURL, token)
	}
	return fmt.Sprintf("%s/public/%s", serverURL, token)
}

func runOrgLink(cmd *cobra.Command, kind api.LinkKind) error {
	a, err := newApp(cmd, shell.RouteHome)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	org, err := a.requireOrg(ctx)
	if err != nil {
		return err
	}

	enable, _ := cmd.Flags().GetBool("enable")
	disable, _ := cmd.Flags().GetBool("disable")
	regenerate, _ := cmd.Flags().GetBool("regenerate")

	var settings *domain.ShareSettings
	switch {
	case enable || disable:
		settings, err = a.client.SetLinkEnabled(ctx, org.ID, kind, enable)
	case regenerate:
		settings, err = a.client.RegenerateLink(ctx, org.ID, kind)
	default:
		settings, err = a.client.LinkSettings(ctx, org.ID, kind)
	}
	if err != nil {
		return err
	}

	return a.render(linkView{
		Kind:    kind,
		Enabled: settings.ShareLinkEnabled,
		Token:   settings.Token(),
		URL:     linkURL(a.cfg.ServerURL, kind, settings.Token()),
	})
}
