// Package exitcode maps command errors onto process exit codes.
package exitcode

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
)

// UsageError covers bad flags and arguments, and a missing organization.
// Interrupted follows the shell convention for SIGINT.
const (
	Success      = 0
	GeneralError = 1
	UsageError   = 2
	NotFound     = 3
	Forbidden    = 4
	AuthError    = 5
	NetworkError = 6
	Interrupted  = 130
)

// statusCoder is implemented by API errors. A zero status means no
// response was received.
type statusCoder interface {
	HTTPStatus() int
}

var statusCodes = map[int]int{
	0:                          NetworkError,
	http.StatusBadRequest:      UsageError,
	http.StatusUnauthorized:    AuthError,
	http.StatusForbidden:       Forbidden,
	http.StatusNotFound:        NotFound,
	http.StatusTooManyRequests: NetworkError,
}

var errorCodes = map[oderrors.ErrorCode]int{
	oderrors.ErrCodeNotLoggedIn:     AuthError,
	oderrors.ErrCodeSessionExpired:  AuthError,
	oderrors.ErrCodeNoOrganization:  UsageError,
	oderrors.ErrCodeOrgNotMember:    UsageError,
	oderrors.ErrCodeOrgNameRequired: UsageError,
	oderrors.ErrCodeAPIInvalidInput: UsageError,
	oderrors.ErrCodeConfigInvalid:   UsageError,
}

// cobra reports usage mistakes as plain errors.
var usageMessages = []string{"unknown command", "unknown flag", "invalid argument", "required flag", "accepts ", "if any flags in the group"}

var Exit = os.Exit

// ExitWithError exits with DetermineExitCode(err).
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

func DetermineExitCode(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, context.Canceled):
		return Interrupted
	case errors.Is(err, context.DeadlineExceeded):
		return NetworkError
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		if code, ok := statusCodes[sc.HTTPStatus()]; ok {
			return code
		}
		return GeneralError
	}

	if code, ok := errorCodes[oderrors.CodeOf(err)]; ok {
		return code
	}

	msg := err.Error()
	for _, m := range usageMessages {
		if strings.Contains(msg, m) {
			return UsageError
		}
	}
	return GeneralError
}
