package brightspace

import (
	"errors"
	"fmt"
)

// AuthError means no usable bearer token exists, or the upstream rejected the
// token even after one forced refresh. Fatal to a whole sync run.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("brightspace auth: %v", e.Err)
	}
	return "brightspace auth failed"
}

func (e *AuthError) Unwrap() error { return e.Err }

// PermissionError is an HTTP 403 on a single request. Fatal to that request
// only; the orchestrator counts it and moves on.
type PermissionError struct {
	URL string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("brightspace access denied: %s", e.URL)
}

// UpstreamError covers every other bad status or transport failure.
// StatusCode is 0 for transport-level errors.
type UpstreamError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("brightspace request %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("brightspace request %s: HTTP %d", e.URL, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// errNotFound marks a 404 on a detail endpoint. Callers translate it into an
// empty result instead of surfacing an error.
var errNotFound = errors.New("brightspace resource not found")
