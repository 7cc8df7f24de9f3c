package model

import "fmt"

// ValidationError reports a rejected input. Field names the offending value.
// Validation failures never leave partial writes behind.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}
