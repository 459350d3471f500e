package errs

import (
	"fmt"
	"net/http"
)

// HTTPStatus maps a classified error to the status code the backend
// returns for it. Unclassified errors map to 500.
func HTTPStatus(err error) int {
	k, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTPStatus classifies a remote response status for the sync
// engine. 4xx statuses are permanent; 5xx and everything unexpected is
// transient so the queue retries it.
func FromHTTPStatus(op string, status int) *Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Unauthorized("%s: remote returned %d", op, status)
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Msg: op}
	case status == http.StatusConflict:
		return Conflict("%s: remote returned %d", op, status)
	case status >= 400 && status < 500:
		return Validation("%s: remote rejected payload (%d)", op, status)
	default:
		return &Error{Kind: KindTransient, Msg: op, Err: statusError(status)}
	}
}

type statusError int

func (s statusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", int(s), http.StatusText(int(s)))
}
