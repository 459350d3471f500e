package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want func(error) bool
	}{
		{"validation", Validation("bad coords"), IsValidation},
		{"not found", NotFound("report", 7), IsNotFound},
		{"unauthorized", Unauthorized("expired token"), IsUnauthorized},
		{"conflict", Conflict("already clocked in"), IsConflict},
		{"storage", Storage("save report", errors.New("disk full")), IsStorage},
		{"transient", Transient("upload", errors.New("timeout")), IsTransient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.want(tc.err))

			// Exactly one predicate matches.
			matches := 0
			for _, pred := range []func(error) bool{
				IsValidation, IsNotFound, IsUnauthorized, IsConflict, IsStorage, IsTransient,
			} {
				if pred(tc.err) {
					matches++
				}
			}
			assert.Equal(t, 1, matches)
		})
	}
}

func TestPredicates_UnclassifiedError(t *testing.T) {
	err := errors.New("plain")
	assert.False(t, IsValidation(err))
	assert.False(t, IsTransient(err))
	assert.False(t, IsPermanent(err))
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer context: %w", Conflict("duplicate verification"))
	assert.True(t, IsConflict(err))
	assert.True(t, IsPermanent(err))
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(Validation("bad")))
	assert.True(t, IsPermanent(Unauthorized("bad token")))
	assert.True(t, IsPermanent(NotFound("photo", "abc")))
	assert.False(t, IsPermanent(Transient("upload", errors.New("refused"))))
}

func TestNotFound_Message(t *testing.T) {
	err := NotFound("checkpoint", 12)
	assert.Contains(t, err.Error(), "checkpoint 12 not found")
}

func TestStorage_UnwrapsCause(t *testing.T) {
	cause := errors.New("database is locked")
	err := Storage("enqueue sync", cause)
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("x", 1), http.StatusNotFound},
		{Unauthorized("no token"), http.StatusUnauthorized},
		{Conflict("dup"), http.StatusConflict},
		{Transient("up", errors.New("x")), http.StatusServiceUnavailable},
		{Storage("save", errors.New("x")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "for %v", tc.err)
	}
}

func TestFromHTTPStatus(t *testing.T) {
	assert.True(t, IsUnauthorized(FromHTTPStatus("upload", 401)))
	assert.True(t, IsUnauthorized(FromHTTPStatus("upload", 403)))
	assert.True(t, IsNotFound(FromHTTPStatus("upload", 404)))
	assert.True(t, IsConflict(FromHTTPStatus("upload", 409)))
	assert.True(t, IsValidation(FromHTTPStatus("upload", 422)))

	// 5xx must come back retryable.
	assert.True(t, IsTransient(FromHTTPStatus("upload", 500)))
	assert.True(t, IsTransient(FromHTTPStatus("upload", 503)))
}
