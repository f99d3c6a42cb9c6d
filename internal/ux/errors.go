package ux

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/wsciaroni/opsdeck-cli/internal/api"
	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
)

// ErrorWithSuggestion pairs an error with a next step for the user.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
}

func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion returns nil for a nil err.
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{Err: err, Suggestion: suggestion}
}

var statusSuggestions = map[int]string{
	http.StatusUnauthorized: "Your session has ended. Run 'opsdeck auth login' to sign in again",
	http.StatusForbidden:    "Your role does not allow this. Run 'opsdeck org list' to check your role in the active organization",
	http.StatusNotFound:     "Check the id, and that it belongs to the active organization ('opsdeck org switch <id>')",
}

var messageSuggestions = []struct {
	needles    []string
	suggestion string
}{
	{
		[]string{"connection refused", "no such host", "no route to host"},
		"Check that the OpsDeck server is running and that 'opsdeck config view' shows the right server_url",
	},
	{
		[]string{"deadline exceeded", "Client.Timeout"},
		"The server took too long to answer. Raise OPSDECK_TIMEOUT or try again later",
	},
}

// EnhanceError attaches a suggestion based on the API status or the
// error text. Coded errors carry their own suggestions and pass through.
func EnhanceError(err error) error {
	if err == nil || oderrors.CodeOf(err) != "" {
		return err
	}

	if s, ok := statusSuggestions[api.StatusOf(err)]; ok {
		return NewErrorWithSuggestion(err, s)
	}

	if errors.Is(err, os.ErrPermission) {
		return NewErrorWithSuggestion(err, "Check permissions on your opsdeck home directory ('opsdeck config path')")
	}

	msg := err.Error()
	for _, m := range messageSuggestions {
		for _, needle := range m.needles {
			if strings.Contains(msg, needle) {
				return NewErrorWithSuggestion(err, m.suggestion)
			}
		}
	}
	return err
}

// FormatError enhances err and prefixes it with what was being done.
func FormatError(err error, doing string) error {
	if err == nil {
		return nil
	}
	enhanced := EnhanceError(err)
	if doing == "" {
		return enhanced
	}
	return fmt.Errorf("%s: %w", doing, enhanced)
}
