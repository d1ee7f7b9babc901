package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// NotFoundError reports a lookup miss on a learner, class, term or fee.
type NotFoundError struct {
	Entity string
	Key    string
}

func NewNotFoundError(entity, key string) error {
	return &NotFoundError{Entity: entity, Key: key}
}

func (err NotFoundError) Error() string {
	if err.Key == "" {
		return err.Entity + " not found"
	}
	return fmt.Sprintf("%s %q not found", err.Entity, err.Key)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ConfigurationError signals missing or inconsistent reference data (eg. no class to promote into).
// It is a setup problem, not bad input.
type ConfigurationError struct {
	Code string
	Msg  string
}

func NewConfigurationError(code, msg string) error {
	return &ConfigurationError{Code: code, Msg: msg}
}

func (err ConfigurationError) Error() string {
	return err.Msg
}

func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// unavailable wraps failures of a backing service (eg. the database is unreachable).
// Batches abort on it instead of recording a per-item failure.
type unavailable struct {
	err error
}

func NewUnavailableError(err error) error {
	return &unavailable{err: err}
}

func (u unavailable) Error() string {
	return "service unavailable: " + u.err.Error()
}

func (u unavailable) Unwrap() error { return u.err }

func IsSystemic(err error) bool {
	var u *unavailable
	return errors.As(err, &u) || IsShutdown(err)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
