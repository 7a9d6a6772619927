package commerce

import (
	"fmt"

	"github.com/go-faster/errors"
)

// APIError is a non-2xx response from the commerce backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("commerce backend returned status %d", e.Status)
	}
	return fmt.Sprintf("commerce backend returned status %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is an APIError with a 404 status, which for
// cart retrieval means the stored identifier is expired or unknown.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}
