package identity

import "errors"

var (
	// ErrUnresolvableHandle indicates the endpoint has never observed the
	// referenced handle. The target must contact the bot before it can be
	// resolved; callers surface that guidance rather than retrying.
	ErrUnresolvableHandle = errors.New("handle not resolvable")
	// ErrInvalidReference indicates the reference is neither a numeric id
	// nor an @handle.
	ErrInvalidReference = errors.New("invalid user reference")
)
