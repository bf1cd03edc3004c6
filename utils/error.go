package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorScopeNotFound is a caller error: the requested scope entity does not
// exist for the tenant. Never retried.
var ErrorScopeNotFound = errors.New("scope entity not found")

// RenderError wraps artifact rendering/storage failures. The enclosing task
// must abort so the executor's retry logic can engage.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed (%s): %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func RenderFailed(stage string, err error) error {
	return &RenderError{Stage: stage, Err: err}
}

// TransientError marks infrastructure failures (store I/O, lock contention,
// momentarily missing external entities) that are worth retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether a task failure should re-enter the retry loop.
// Scope/validation errors are terminal; render and store failures are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrorScopeNotFound) || errors.Is(err, ErrorRecordNotFound) {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var re *RenderError
	return errors.As(err, &re)
}
