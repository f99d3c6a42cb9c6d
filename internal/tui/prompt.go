// Package tui holds the interactive prompts used by opsdeck commands.
package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/wsciaroni/opsdeck-cli/internal/domain"
)

// Prompt configures a free-text question.
type Prompt struct {
	Message     string
	Default     string
	Placeholder string
	Required    bool
	// Multiline uses a text area, for descriptions and comments.
	Multiline bool
}

// ErrRequired is returned when a required prompt is left blank.
var ErrRequired = errors.New("value is required")

func run(field huh.Field) error {
	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// PromptForString asks for text and trims surrounding whitespace.
func PromptForString(p Prompt) (string, error) {
	value := p.Default

	var field huh.Field
	if p.Multiline {
		field = huh.NewText().Title(p.Message).Placeholder(p.Placeholder).Value(&value)
	} else {
		field = huh.NewInput().Title(p.Message).Placeholder(p.Placeholder).Value(&value)
	}
	if err := run(field); err != nil {
		return "", err
	}

	value = strings.TrimSpace(value)
	if p.Required && value == "" {
		return "", ErrRequired
	}
	return value, nil
}

func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue
	if err := run(huh.NewConfirm().Title(message).Value(&confirmed)); err != nil {
		return false, err
	}
	return confirmed, nil
}

func PromptForSelect(message string, options []huh.Option[string]) (string, error) {
	if len(options) == 0 {
		return "", errors.New("no options to choose from")
	}

	var selected string
	if err := run(huh.NewSelect[string]().Title(message).Options(options...).Value(&selected)); err != nil {
		return "", err
	}
	return selected, nil
}

// SelectOrganization returns the id of the chosen organization.
func SelectOrganization(orgs []domain.Organization, activeID string) (string, error) {
	return PromptForSelect("Select an organization", OrganizationOptions(orgs, activeID))
}

// OrganizationOptions labels each organization "Name (slug, role)" in server
// order, preselecting the active one.
func OrganizationOptions(orgs []domain.Organization, activeID string) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(orgs))
	for _, o := range orgs {
		label := fmt.Sprintf("%s (%s, %s)", o.Name, o.Slug, o.Role)
		options = append(options, huh.NewOption(label, o.ID).Selected(o.ID == activeID))
	}
	return options
}

// PriorityOptions lists priorities lowest first.
func PriorityOptions() []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(domain.Priorities))
	for _, p := range domain.Priorities {
		options = append(options, huh.NewOption(p.Label(), string(p)))
	}
	return options
}

var ciEnvVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS", "CIRCLECI", "BUILDKITE"}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// ShouldPrompt is false under CI or when stdin is piped.
func ShouldPrompt() bool {
	for _, v := range ciEnvVars {
		if os.Getenv(v) != "" {
			return false
		}
	}
	return IsInteractive()
}
