package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ErrConfig, ExitConfig},
		{ErrInvalidInput, ExitInvalidInput},
		{ErrDuplicateKey, ExitInvalidInput},
		{ErrCorpusTooSmall, ExitCorpusSmall},
		{ErrValueTooLarge, ExitValueSize},
		{ErrPublishFailed, ExitPublish},
		{errors.New("something else"), ExitFailure},
	}
	for _, c := range cases {
		if got := ExitCode(c.err); got != c.want {
			t.Errorf("ExitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestExitCodeSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("packing document 12: %w", ErrValueTooLarge)
	if got := ExitCode(err); got != ExitValueSize {
		t.Errorf("ExitCode(wrapped) = %d, want %d", got, ExitValueSize)
	}
	err = Newf(ErrInvalidInput, "ingest", "term %q repeated", "dog")
	if got := ExitCode(err); got != ExitInvalidInput {
		t.Errorf("ExitCode(BuildError) = %d, want %d", got, ExitInvalidInput)
	}
}

func TestBuildErrorUnwrapsToSentinel(t *testing.T) {
	err := New(ErrPublishFailed, "emit", "disk full")
	if !errors.Is(err, ErrPublishFailed) {
		t.Error("errors.Is does not reach the sentinel")
	}
	want := "emit: artifact publish failed: disk full"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
