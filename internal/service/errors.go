package service

import "errors"

// ErrNotFound marks a missing or already soft-deleted resource.
var ErrNotFound = errors.New("resource not found")

// PermissionError carries a permission evaluator denial. It is expected
// control flow, never logged as an error, and its reason is safe to show to
// the end user.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return e.Reason
}

// PreconditionError marks a business-rule violation discovered at mutation
// time (e.g. deleting a school that still has active users). Unlike a
// permission denial, retrying with different data could succeed.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// IsPermissionDenied reports whether err is a permission denial.
func IsPermissionDenied(err error) bool {
	var perm *PermissionError
	return errors.As(err, &perm)
}

// IsPreconditionFailed reports whether err is a precondition failure.
func IsPreconditionFailed(err error) bool {
	var pre *PreconditionError
	return errors.As(err, &pre)
}
