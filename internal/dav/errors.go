package dav

import (
	"fmt"
	"net/http"
)

// OperationError reports an HTTP-level failure of a DAV operation. It is
// data, not a panic: scenes render it inline and the user stays where they
// are.
type OperationError struct {
	Op     string // operation name, e.g. "login", "list collections"
	Status int    // HTTP status code
	Detail string // optional server-provided detail
}

func (e *OperationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Detail, e.Status)
	}
	return fmt.Sprintf("%s: HTTP %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

// statusErr maps a rejected response to an *OperationError, with a friendlier
// detail for authentication failures.
func statusErr(op string, status int) error {
	detail := ""
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		detail = "authentication failed"
	}
	return &OperationError{Op: op, Status: status, Detail: detail}
}
