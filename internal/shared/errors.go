package shared

import "errors"

var (
	// ErrNotFound indicates a referenced department, role or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidHierarchy indicates a cycle or malformed parent reference in the department tree.
	ErrInvalidHierarchy = errors.New("invalid hierarchy")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrHasChildren indicates a department cannot be deleted while children remain.
	ErrHasChildren = errors.New("department has children")
	// ErrForbidden indicates the caller is not allowed to perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked indicates too many failed login attempts.
	ErrAccountLocked = errors.New("account locked")
)
