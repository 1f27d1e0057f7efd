package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("missing name"), http.StatusBadRequest},
		{Conflict("duplicate"), http.StatusBadRequest},
		{NotFound("gone"), http.StatusNotFound},
		{Forbidden("wrong project"), http.StatusForbidden},
		{Storage(errors.New("disk full"), "write failed"), http.StatusInternalServerError},
		{Persistence(errors.New("locked"), "query failed"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusCode(tc.err), tc.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := Conflict("folder %q already exists", "F")
	wrapped := fmt.Errorf("create folder: %w", base)

	assert.True(t, IsKind(wrapped, KindConflict))
	assert.True(t, errors.Is(wrapped, &Error{Kind: KindConflict}))
	assert.False(t, errors.Is(wrapped, &Error{Kind: KindNotFound}))
	assert.Equal(t, `folder "F" already exists`, Message(wrapped))
}

func TestUnwrapReachesCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := Storage(cause, "write file")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error", Message(errors.New("x")))
}
