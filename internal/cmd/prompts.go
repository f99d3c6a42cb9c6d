package cmd

import "github.com/wsciaroni/opsdeck-cli/internal/tui"

// Prompt hooks; tests replace them to script answers.
var (
	tuiShouldPrompt = tui.ShouldPrompt
	tuiConfirm      = tui.PromptForConfirmation
	tuiPrompt       = tui.PromptForString
	tuiSelectOrg    = tui.SelectOrganization
	tuiSelect       = tui.PromptForSelect
)
