// Package credentials persists the server session cookie between CLI runs.
package credentials

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
	"github.com/wsciaroni/opsdeck-cli/internal/prefs"
)

// CookieName is the session cookie set by the server after login.
const CookieName = "session_id"

// Credentials is the persisted session for one server.
type Credentials struct {
	ServerURL string    `json:"server_url"`
	SessionID string    `json:"session_id"`
	SavedAt   time.Time `json:"saved_at"`
}

// Apply installs the session cookie into jar for the credentials' server.
func (c Credentials) Apply(jar http.CookieJar) error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return oderrors.Wrap(oderrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid server URL: %s", c.ServerURL), err)
	}
	jar.SetCookies(u, []*http.Cookie{{
		Name:  CookieName,
		Value: c.SessionID,
		Path:  "/",
	}})
	return nil
}

// FromJar reads the current session cookie for serverURL back out of jar.
func FromJar(jar http.CookieJar, serverURL string) (Credentials, bool) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return Credentials{}, false
	}
	for _, c := range jar.Cookies(u) {
		if c.Name == CookieName && c.Value != "" {
			return Credentials{ServerURL: serverURL, SessionID: c.Value}, true
		}
	}
	return Credentials{}, false
}

// File stores Credentials as JSON with owner-only permissions.
type File struct {
	path string
}

// NewFile creates a credentials file handle for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Load reads saved credentials. It returns (nil, nil) when none exist, and
// also when the saved session belongs to a different server.
func (f *File) Load(serverURL string) (*Credentials, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, oderrors.Wrap(oderrors.ErrCodeCredentialsStore, "failed to read credentials", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, oderrors.NewFileUnmarshalError(f.path, "JSON", err)
	}

	if creds.SessionID == "" || !sameServer(creds.ServerURL, serverURL) {
		return nil, nil
	}
	return &creds, nil
}

// Save writes creds, stamping SavedAt when unset.
func (f *File) Save(creds Credentials) error {
	if creds.SessionID == "" {
		return oderrors.New(oderrors.ErrCodeCredentialsStore, "session id cannot be empty")
	}
	if creds.SavedAt.IsZero() {
		creds.SavedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return oderrors.Wrap(oderrors.ErrCodeFileMarshal, "failed to encode credentials", err)
	}
	return prefs.WriteFileAtomic(f.path, data, 0600)
}

// Clear removes the credentials file. A missing file is not an error.
func (f *File) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return oderrors.Wrap(oderrors.ErrCodeCredentialsStore, "failed to remove credentials", err)
	}
	return nil
}

func sameServer(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
