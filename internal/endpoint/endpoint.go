// Package endpoint abstracts the bound chat transport. The core never
// talks to a chat network directly: message delivery, button rendering,
// file transfer and handle lookup all go through this interface.
package endpoint

import (
	"context"

	"github.com/rpggio/docvault/internal/identity"
)

// Button is one inline action offered alongside a message. Token is opaque
// to the transport and comes back verbatim in a button event.
type Button struct {
	Label string
	Token string
}

// Endpoint is the messaging transport bound to the dispatcher.
type Endpoint interface {
	identity.Directory

	// SendMessage delivers text to an identity, optionally with buttons.
	SendMessage(ctx context.Context, to identity.ID, text string, buttons ...Button) error

	// SendDocument replays a stored artifact handle to an identity. The
	// artifact is owned by the transport; delivery can fail when the
	// original is no longer available.
	SendDocument(ctx context.Context, to identity.ID, fileRef, caption string) error
}
