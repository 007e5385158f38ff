package snsik

import "errors"

// ErrNotReady reports a solve attempted on a facade that never completed
// construction. A failed construction is terminal: the instance stays
// unready and every subsequent call keeps returning this error.
var ErrNotReady = errors.New("snsik: solver not initialized")

// ErrSolveTypeActive reports a SetVelocitySolveType call naming the type
// that is already active. The existing solver is untouched and remains
// usable; callers that only care about "did anything change" can treat this
// as a failure, callers that care can tell it apart from a real one.
var ErrSolveTypeActive = errors.New("snsik: requested velocity solve type already active")

// ConfigError reports invalid construction input: mismatched bound array
// lengths, a chain without movable joints, a joint whose limits cannot be
// resolved, or an unknown velocity solve type. It is only produced while
// building a facade or swapping its solver.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "snsik: invalid configuration: " + e.Reason
}

// LookupError reports a nullspace bias request that cannot be mapped onto
// the chain: a joint name the chain does not contain, or mismatched
// name/value counts. The request produces no task at all.
type LookupError struct {
	Joint  string // offending joint name, empty for a count mismatch
	Reason string
}

func (e *LookupError) Error() string {
	if e.Joint != "" {
		return "snsik: bias joint " + e.Joint + ": " + e.Reason
	}
	return "snsik: bias request: " + e.Reason
}

// DelegateError wraps a failure reported by an external collaborator (the
// chain's Jacobian computation or a solving strategy). The cause is opaque
// to this package and propagated unchanged.
type DelegateError struct {
	Op  string
	Err error
}

func (e *DelegateError) Error() string {
	return "snsik: " + e.Op + ": " + e.Err.Error()
}

func (e *DelegateError) Unwrap() error { return e.Err }
