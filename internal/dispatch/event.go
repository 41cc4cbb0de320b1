package dispatch

import (
	"strings"

	"github.com/rpggio/docvault/internal/identity"
)

// Kind discriminates inbound events. Raw transport updates are decoded
// into exactly one of these at the boundary; the dispatcher matches on the
// kind exhaustively.
type Kind int

const (
	// KindCommand is a named command with whitespace-separated arguments.
	KindCommand Kind = iota
	// KindButton is a button activation carrying an opaque token.
	KindButton
	// KindText is a free-text message.
	KindText
	// KindUpload is a received document.
	KindUpload
)

// Event is one decoded inbound operation from the messaging endpoint.
type Event struct {
	Kind     Kind
	From     identity.ID
	FromName string

	// Command events.
	Command string
	Args    []string

	// Button events.
	Token string

	// Text events.
	Text string

	// Upload events.
	FileRef  string
	FileName string
	Caption  string
}

// Button tokens. Commit selection tokens carry the target project id so
// the button path needs no free-text project-name entry.
const (
	tokenNewProject   = "newproject"
	tokenCommitPrefix = "commit:"
)

func commitToken(projectID string) string {
	return tokenCommitPrefix + projectID
}

func parseCommitToken(token string) (string, bool) {
	if !strings.HasPrefix(token, tokenCommitPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(token, tokenCommitPrefix)
	return id, id != ""
}

// ParseMessage decodes a raw chat message into a command or text event.
// Both the typed-command path and the button path feed the same dispatcher
// operations; this is the command-side thin adapter.
func ParseMessage(from identity.ID, fromName, text string) Event {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return Event{Kind: KindText, From: from, FromName: fromName, Text: trimmed}
	}
	fields := strings.Fields(trimmed)
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	return Event{
		Kind:     KindCommand,
		From:     from,
		FromName: fromName,
		Command:  name,
		Args:     fields[1:],
	}
}
