// Package identity defines the canonical numeric identity used for all
// internal comparisons, and resolution of user-supplied references to it.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is the canonical numeric identity of a chat user.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// UnmarshalJSON accepts both the canonical numeric encoding and the legacy
// encoding where ids were stored as quoted strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		s = raw
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid identity %q: %w", s, err)
	}
	*id = ID(n)
	return nil
}

// Directory looks up identities the messaging endpoint has previously
// observed. It cannot resolve handles of users who never contacted it.
type Directory interface {
	LookupHandle(ctx context.Context, handle string) (ID, error)
}

// Resolver maps user-supplied references (numeric id or @handle) to
// canonical identities.
type Resolver struct {
	dir Directory
}

// NewResolver creates a resolver backed by the endpoint's directory.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve parses a reference. Numeric references pass through unchanged;
// handle references require a directory lookup, which fails for users the
// endpoint has never seen.
func (r *Resolver) Resolve(ctx context.Context, ref string) (ID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, ErrInvalidReference
	}
	if strings.HasPrefix(ref, "@") {
		handle := strings.TrimPrefix(ref, "@")
		if handle == "" {
			return 0, ErrInvalidReference
		}
		id, err := r.dir.LookupHandle(ctx, handle)
		if err != nil {
			return 0, fmt.Errorf("%w: @%s", ErrUnresolvableHandle, handle)
		}
		return id, nil
	}
	n, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return 0, ErrInvalidReference
	}
	return ID(n), nil
}
