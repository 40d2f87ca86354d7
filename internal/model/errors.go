package model

import "fmt"

// DuplicateKeyError reports a uniqueness violation in a user store.
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return "duplicate key"
	}
	return fmt.Sprintf("duplicate key on %s", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}
