// Package errors defines the fatal error taxonomy of the compiler. Every
// error here aborts the build; none are retried or logged-and-continued,
// because a partially built index is worse than none.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a violation of the input stream contract
	// (duplicate term within a document, malformed terminator, empty term,
	// ID overflow). Downstream structures assume the contract holds, so this
	// is never recoverable.
	ErrInvalidInput = errors.New("invalid input stream")
	// ErrCorpusTooSmall is the precondition failure for corpora with fewer
	// distinct terms than the configured minimum.
	ErrCorpusTooSmall = errors.New("corpus too small to index")
	// ErrValueTooLarge marks a single serialized value exceeding the package
	// size ceiling. A value is never truncated or split across packages.
	ErrValueTooLarge = errors.New("value exceeds package size limit")
	// ErrDuplicateKey marks two inserts with the same lookup key.
	ErrDuplicateKey = errors.New("duplicate lookup key")
	// ErrPublishFailed marks a downstream emitter or publisher failure.
	ErrPublishFailed = errors.New("artifact publish failed")
	// ErrConfig marks an unusable configuration.
	ErrConfig = errors.New("invalid configuration")
)

// Process exit codes, one per fatal category, so callers can distinguish
// contract bugs from limit mismatches in CI.
const (
	ExitFailure      = 1
	ExitConfig       = 2
	ExitInvalidInput = 3
	ExitCorpusSmall  = 4
	ExitValueSize    = 5
	ExitPublish      = 6
)

// BuildError pairs a sentinel with context about where the build failed.
type BuildError struct {
	Err     error
	Stage   string
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Err.Error(), e.Message)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// New wraps a sentinel with the pipeline stage and a message.
func New(sentinel error, stage string, message string) *BuildError {
	return &BuildError{
		Err:     sentinel,
		Stage:   stage,
		Message: message,
	}
}

// Newf is New with fmt-style formatting.
func Newf(sentinel error, stage string, format string, args ...any) *BuildError {
	return &BuildError{
		Err:     sentinel,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	}
}

// ExitCode maps an error to the process exit code for the build binary.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfig):
		return ExitConfig
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrDuplicateKey):
		return ExitInvalidInput
	case errors.Is(err, ErrCorpusTooSmall):
		return ExitCorpusSmall
	case errors.Is(err, ErrValueTooLarge):
		return ExitValueSize
	case errors.Is(err, ErrPublishFailed):
		return ExitPublish
	default:
		return ExitFailure
	}
}
