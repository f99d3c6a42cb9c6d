package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// genericMessage is shown when the server gives no usable message.
const genericMessage = "Something went wrong"

// maxPlainMessage caps how much of a text/plain error body becomes the message.
const maxPlainMessage = 200

// Error is returned for every failed request.
type Error struct {
	Method string
	Path   string
	// Status is 0 when no response was received
	Status int
	// Message is the server-supplied error message, or a generic fallback
	Message   string
	RequestID string
	Cause     error
	// Notified is set once the failure has been shown to the user
	Notified bool
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Cause)
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), e.Message)
}

// Unwrap returns the transport error, if any
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the response status (0 for transport failures)
func (e *Error) HTTPStatus() int {
	return e.Status
}

// Unauthorized reports an HTTP 401
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// IsUnauthorized reports whether err is an API 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}

// WasNotified reports whether err has already been shown to the user.
func WasNotified(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Notified
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func errorFromResponse(cl *call, requestID string, resp *http.Response) *Error {
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10)) //nolint:errcheck // best-effort message extraction

	return &Error{
		Method:    cl.method,
		Path:      cl.path,
		Status:    resp.StatusCode,
		Message:   extractMessage(resp.Header.Get("Content-Type"), body),
		RequestID: requestID,
	}
}

// extractMessage prefers a JSON {"error": ...} or {"message": ...} body and
// falls back to short plain-text bodies (the server's http.Error output).
func extractMessage(contentType string, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error != "" {
			return eb.Error
		}
		if eb.Message != "" {
			return eb.Message
		}
	}

	mediaType, _, _ := mime.ParseMediaType(contentType) //nolint:errcheck // empty media type is handled below
	if mediaType == "text/plain" {
		text := strings.TrimSpace(string(body))
		if text != "" && len(text) <= maxPlainMessage {
			return text
		}
	}

	return genericMessage
}
