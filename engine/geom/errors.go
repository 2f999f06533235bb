package geom

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvariantViolation marks a state the geometry math can never legitimately reach.
// It is raised with panic and turned into an error at the index boundary.
type InvariantViolation struct {
	Op  string
	err error
}

func (v *InvariantViolation) Error() string {
	return fmt.Sprintf("geometry invariant violated in %s: %v", v.Op, v.err)
}

func (v *InvariantViolation) Unwrap() error {
	return v.err
}

func violation(op, format string, args ...any) *InvariantViolation {
	return &InvariantViolation{Op: op, err: errors.Errorf(format, args...)}
}

// PanicInvariant aborts the current operation with an InvariantViolation.
func PanicInvariant(op, format string, args ...any) {
	panic(violation(op, format, args...))
}

// RecoverInvariant converts a recovered value into an error when it is an InvariantViolation.
// Any other panic value is re-raised. Use it from a deferred function:
//
//	defer func() { err = geom.RecoverInvariant(recover(), err) }()
func RecoverInvariant(recovered any, err error) error {
	if recovered == nil {
		return err
	}
	if v, ok := recovered.(*InvariantViolation); ok {
		return v
	}
	panic(recovered)
}
