package bastion

import (
	"errors"

	"github.com/xraph/bastion/store"
)

var (
	// ErrAccessDenied is returned by Enforce when an authorization check fails.
	ErrAccessDenied = errors.New("bastion: access denied")

	// ErrNoSubject is returned when a request context carries no subject.
	ErrNoSubject = errors.New("bastion: no subject in context")

	// ErrRoleNotFound is returned when a role cannot be found.
	ErrRoleNotFound = errors.New("bastion: role not found")

	// ErrPermissionNotFound is returned when a permission cannot be found.
	ErrPermissionNotFound = errors.New("bastion: permission not found")

	// ErrSystemRoleImmutable is returned when renaming or deleting a system role.
	ErrSystemRoleImmutable = errors.New("bastion: system role cannot be modified")

	// ErrSystemPermissionImmutable is returned when renaming or deleting a system permission.
	ErrSystemPermissionImmutable = errors.New("bastion: system permission cannot be modified")

	// ErrInvalidScope is returned when a permission scope is not one of
	// create, read, update, delete, publish.
	ErrInvalidScope = errors.New("bastion: invalid scope")

	// ErrInvalidResource is returned when a permission resource is malformed.
	ErrInvalidResource = errors.New("bastion: invalid resource")

	// ErrNameRequired is returned when a role or permission has no name.
	ErrNameRequired = errors.New("bastion: name is required")

	// ErrDuplicateName is returned when a role or permission name is taken.
	ErrDuplicateName = errors.New("bastion: name already exists")

	// ErrUnknownReference is returned when a mutation names a parent role or
	// permission that does not exist. It is joined with the not-found error
	// of the missing entity.
	ErrUnknownReference = errors.New("bastion: unknown reference")
)

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidScope) ||
		errors.Is(err, ErrInvalidResource) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrUnknownReference)
}

// IsImmutable reports whether err is a system entity immutability violation.
func IsImmutable(err error) bool {
	return errors.Is(err, ErrSystemRoleImmutable) || errors.Is(err, ErrSystemPermissionImmutable)
}

// IsNotFound reports whether err means a referenced entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound) ||
		errors.Is(err, ErrPermissionNotFound) ||
		errors.Is(err, store.ErrNotFound)
}
