// Package errors defines coded errors that carry recovery suggestions for
// the user.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a stable "AREA-NNN" identifier.
type ErrorCode string

const (
	ErrCodeNotLoggedIn      ErrorCode = "AUTH-001"
	ErrCodeSessionExpired   ErrorCode = "AUTH-002"
	ErrCodeCredentialsStore ErrorCode = "AUTH-004"

	ErrCodeAPIRequest      ErrorCode = "API-001"
	ErrCodeAPIResponse     ErrorCode = "API-002"
	ErrCodeAPIInvalidInput ErrorCode = "API-006"

	ErrCodeNoOrganization  ErrorCode = "ORG-001"
	ErrCodeOrgNotMember    ErrorCode = "ORG-002"
	ErrCodeOrgNameRequired ErrorCode = "ORG-003"

	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"
	ErrCodeConfigEnv     ErrorCode = "CONFIG-002"

	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
	ErrCodeFileMarshal     ErrorCode = "IO-006"
)

// OpsDeckError is a coded error with suggestions.
type OpsDeckError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

func (e *OpsDeckError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, s := range e.Suggestions {
			b.WriteString("\n  • " + s)
		}
	}
	return b.String()
}

func (e *OpsDeckError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *OpsDeckError {
	return &OpsDeckError{Code: code, Message: message}
}

func Wrap(code ErrorCode, message string, cause error) *OpsDeckError {
	return &OpsDeckError{Code: code, Message: message, Cause: cause}
}

func (e *OpsDeckError) WithSuggestion(suggestion string) *OpsDeckError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// CodeOf returns the code of the first OpsDeckError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var odErr *OpsDeckError
	if errors.As(err, &odErr) {
		return odErr.Code
	}
	return ""
}

func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// NewNotLoggedInError is returned by commands that need a session.
func NewNotLoggedInError() *OpsDeckError {
	return New(ErrCodeNotLoggedIn, "not logged in").
		WithSuggestion("Run 'opsdeck auth login' to sign in").
		WithSuggestion("Check that OPSDECK_SERVER_URL points at the right server")
}

// NewNoOrganizationError is returned by commands scoped to an organization
// when none is active.
func NewNoOrganizationError() *OpsDeckError {
	return New(ErrCodeNoOrganization, "no organization selected").
		WithSuggestion("Run 'opsdeck org list' to see your organizations").
		WithSuggestion("Run 'opsdeck org switch <id>' to select one").
		WithSuggestion("Run 'opsdeck org create <name>' if you are not a member of any organization")
}

func NewOrgNotMemberError(orgID string) *OpsDeckError {
	return New(ErrCodeOrgNotMember, fmt.Sprintf("not a member of organization: %s", orgID)).
		WithSuggestion("Run 'opsdeck org list' to see valid organization ids")
}

// NewFileUnmarshalError reports a malformed config, credentials or prefs file.
func NewFileUnmarshalError(path string, format string, cause error) *OpsDeckError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion(fmt.Sprintf("Fix the %s syntax or delete the file to start over", format))
}
