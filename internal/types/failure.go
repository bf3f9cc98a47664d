package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// FailureKind classifies a mutation or stream failure.
type FailureKind int

const (
	// FailureNetwork covers unreachable or erroring gateway/transport calls.
	// Recovered locally via rollback or a stream-state transition.
	FailureNetwork FailureKind = iota + 1
	// FailureValidation covers inputs rejected before any optimistic apply.
	FailureValidation
	// FailureConflict covers targets that no longer exist server-side.
	FailureConflict
	// FailurePartialStream covers a completion channel dropping mid-stream.
	FailurePartialStream
)

func (k FailureKind) String() string {
	switch k {
	case FailureNetwork:
		return "network"
	case FailureValidation:
		return "validation"
	case FailureConflict:
		return "conflict"
	case FailurePartialStream:
		return "partial_stream"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Failure is the tagged result the mutation executor resolves with after
// rollback completes. Cache state is guaranteed consistent by the time a
// Failure is returned.
type Failure struct {
	Kind  FailureKind
	cause error
}

// NewFailure wraps a cause with a failure kind.
func NewFailure(kind FailureKind, cause error) *Failure {
	return &Failure{Kind: kind, cause: cause}
}

// Failuref creates a failure from a format string.
func Failuref(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, cause: errors.Errorf(format, args...)}
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failure: %v", f.Kind, f.cause)
}

func (f *Failure) Unwrap() error {
	return f.cause
}

// FailureKindOf extracts the failure kind from an error chain.
// Returns false for unexpected/programmer errors.
func FailureKindOf(err error) (FailureKind, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind, true
	}
	return 0, false
}
