package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  *OpsDeckError
		want string
	}{
		{"plain", New(ErrCodeConfigInvalid, "invalid config"), "[CONFIG-001] invalid config"},
		{"cause", Wrap(ErrCodeFileReadFailed, "read failed", errors.New("permission denied")), "[IO-002] read failed: permission denied"},
		{
			"suggestions",
			New(ErrCodeNoOrganization, "no org").WithSuggestion("pick one").WithSuggestion("or create one"),
			"[ORG-001] no org\n\nSuggestions:\n  • pick one\n  • or create one",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeFileWriteFailed, "could not save", cause)
	assert.ErrorIs(t, err, cause)
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("running command: %w", NewNotLoggedInError())

	assert.Equal(t, ErrCodeNotLoggedIn, CodeOf(wrapped))
	assert.True(t, HasCode(wrapped, ErrCodeNotLoggedIn))
	assert.False(t, HasCode(wrapped, ErrCodeSessionExpired))
	assert.False(t, HasCode(nil, ErrCodeNotLoggedIn))
	assert.Empty(t, CodeOf(errors.New("plain")))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err  *OpsDeckError
		code ErrorCode
	}{
		{NewNotLoggedInError(), ErrCodeNotLoggedIn},
		{NewNoOrganizationError(), ErrCodeNoOrganization},
		{NewOrgNotMemberError("o9"), ErrCodeOrgNotMember},
		{NewFileUnmarshalError("/tmp/prefs.json", "JSON", errors.New("bad")), ErrCodeFileUnmarshal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Suggestions)
		})
	}
	assert.Contains(t, NewOrgNotMemberError("o9").Message, "o9")
}
