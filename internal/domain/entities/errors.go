package entities

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them via errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrParse             = errors.New("parse error")
	ErrMissingField      = errors.New("missing field")
	ErrIO                = errors.New("i/o error")
	ErrLocked            = errors.New("project is locked")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrInvalidRecord     = errors.New("invalid signature record")
	ErrUsage             = errors.New("usage error")
)

// NotFoundError indicates an expected file is absent
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s is not a file", e.Path)
}

// Is implements errors.Is matching against ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ParseError indicates malformed JSON or YAML
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

// Is implements errors.Is matching against ErrParse
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingFieldError indicates a required key is absent
type MissingFieldError struct {
	Path  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: required field %q is missing", e.Path, e.Field)
}

// Is implements errors.Is matching against ErrMissingField
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// IOError indicates a read or write failure
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Is implements errors.Is matching against ErrIO
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// MismatchError describes a failed verification
type MismatchError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s mismatch: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// Is implements errors.Is matching against ErrSignatureMismatch
func (e *MismatchError) Is(target error) bool {
	return target == ErrSignatureMismatch
}
