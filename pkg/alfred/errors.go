package alfred

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the Alfred backend, carrying the
// backend-provided detail message when one was parseable.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("chat error (%d)", e.StatusCode)
}

// IsNotFound reports whether err is an APIError for a missing resource
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
