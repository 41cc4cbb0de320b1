package project

import "errors"

var (
	// ErrNotFound covers both an unknown name and a project the caller has
	// no access to, so that existence is not leaked to non-members.
	ErrNotFound = errors.New("project not found")
	// ErrDuplicateName indicates the owner already has a project with this
	// name (case-insensitive).
	ErrDuplicateName = errors.New("duplicate project name")
	// ErrNotOwner indicates a membership-management call by a non-owner.
	ErrNotOwner = errors.New("not the project owner")
	// ErrAlreadySelf indicates the owner tried to add themselves.
	ErrAlreadySelf = errors.New("owner is already a member")
	// ErrAlreadyMember indicates the target is already in the member set.
	ErrAlreadyMember = errors.New("already a member")
	// ErrNotAMember indicates the removal target is not in the member set.
	ErrNotAMember = errors.New("not a member")
	// ErrCannotRemoveOwner indicates an attempt to remove the owner.
	ErrCannotRemoveOwner = errors.New("cannot remove the owner")
	// ErrNoVersions indicates the requested version does not exist or the
	// ledger is empty.
	ErrNoVersions = errors.New("version not found")
	// ErrInvalidName indicates an empty or whitespace-only project name.
	ErrInvalidName = errors.New("invalid project name")
)
