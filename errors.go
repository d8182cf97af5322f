package sift

import "fmt"

// ErrConfig reports an invalid configuration value detected at
// construction. Not recoverable by the component; the caller must fix
// the named option.
type ErrConfig struct {
	Option string
	Reason string
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("config %s: %s", e.Option, e.Reason)
}

// ErrInput reports invalid input to a call-time operation, such as an
// empty result set or a candidate missing a required field.
type ErrInput struct {
	Field  string
	Reason string
}

func (e *ErrInput) Error() string {
	return fmt.Sprintf("input %s: %s", e.Field, e.Reason)
}
