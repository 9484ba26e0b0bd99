package helper

import "fmt"

// NewError wraps an error with the operation that produced it.
// The wrapped error stays visible to errors.Is and errors.As.
func NewError(context string, err error) error {
	return fmt.Errorf("error in %s: %w", context, err)
}
