package aerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	t.Parallel()

	e := New(KindCloneError, "CloneRepo", "clone rejected").
		WithEndpoint("/sap/bc/adt/abapgit/repos").
		WithStatus(400).
		WithSAPError("Package ZX does not exist")
	s := e.Error()
	assert.Contains(t, s, "CloneRepo")
	assert.Contains(t, s, "[/sap/bc/adt/abapgit/repos]")
	assert.Contains(t, s, "(HTTP 400)")
	assert.Contains(t, s, "clone rejected")
	assert.Contains(t, s, "SAP: Package ZX does not exist")
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	e := Wrap(KindConnection, "Get", "request failed", cause)
	assert.ErrorIs(t, e, cause)
}

func TestExitCodeMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want int
	}{
		{KindConnection, 1},
		{KindAuthentication, 1},
		{KindCsrfToken, 1},
		{KindNotFound, 2},
		{KindPackageError, 2},
		{KindCloneError, 3},
		{KindPullError, 4},
		{KindActivationError, 5},
		{KindLockConflict, 6},
		{KindTestFailure, 7},
		{KindCheckError, 8},
		{KindTransportError, 9},
		{KindTimeout, 10},
		{KindInternal, 99},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, New(tc.kind, "Op", "m").ExitCode())
		})
	}
}

func TestExitCodeHelper(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 10, ExitCode(fmt.Errorf("wrapped: %w", New(KindTimeout, "Poll", "deadline"))))
	assert.Equal(t, 99, ExitCode(errors.New("plain")))
}
