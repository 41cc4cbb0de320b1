// Package session tracks per-identity dispatcher state: the pending upload
// and the single allowed awaiting-input state. Sessions are ephemeral and
// never persisted.
package session

import (
	"sync"

	"github.com/rpggio/docvault/internal/identity"
)

// State is the dispatcher state for one identity. At most one pending
// state is allowed at a time.
type State int

const (
	// StateIdle accepts commands, button presses and uploads.
	StateIdle State = iota
	// StateAwaitingProjectName consumes the next free-text message as the
	// name for a project created from the pending upload.
	StateAwaitingProjectName
)

// Upload is the most recent not-yet-committed artifact held for an
// identity. It is replaced by newer uploads and consumed exactly once by
// the next successful create or commit.
type Upload struct {
	FileRef  string
	FileName string
	Caption  string
}

type entry struct {
	state   State
	pending *Upload
}

// Table holds session state keyed by identity. Identities never share
// state, so the table's lock only guards the map itself.
type Table struct {
	mu      sync.Mutex
	entries map[identity.ID]*entry
}

// NewTable creates an empty session table.
func NewTable() *Table {
	return &Table{entries: make(map[identity.ID]*entry)}
}

func (t *Table) get(id identity.ID) *entry {
	e, ok := t.entries[id]
	if !ok {
		e = &entry{state: StateIdle}
		t.entries[id] = e
	}
	return e
}

// State returns the identity's current dispatcher state.
func (t *Table) State(id identity.ID) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(id).state
}

// SetState transitions the identity to the given state.
func (t *Table) SetState(id identity.ID, s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(id).state = s
}

// PutUpload records a new pending upload, replacing any previous one.
func (t *Table) PutUpload(id identity.ID, up Upload) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(id).pending = &up
}

// Pending returns the identity's pending upload without consuming it, or
// nil when none exists.
func (t *Table) Pending(id identity.ID) *Upload {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.get(id)
	if e.pending == nil {
		return nil
	}
	up := *e.pending
	return &up
}

// TakeUpload consumes the pending upload. Returns nil when none exists.
func (t *Table) TakeUpload(id identity.ID) *Upload {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.get(id)
	up := e.pending
	e.pending = nil
	return up
}
