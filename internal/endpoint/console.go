package endpoint

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rpggio/docvault/internal/identity"
)

// Console is a local development endpoint that prints deliveries to a
// writer. Its directory only knows handles it has been told about, which
// mirrors the real transport's limitation.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	handles map[string]identity.ID
}

// NewConsole creates a console endpoint writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out, handles: make(map[string]identity.ID)}
}

// Observe records that an identity with the given handle has interacted,
// making the handle resolvable afterwards.
func (c *Console) Observe(handle string, id identity.ID) {
	if handle == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles[strings.ToLower(handle)] = id
}

// LookupHandle implements identity.Directory.
func (c *Console) LookupHandle(ctx context.Context, handle string) (identity.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.handles[strings.ToLower(handle)]
	if !ok {
		return 0, fmt.Errorf("unknown handle %q", handle)
	}
	return id, nil
}

// SendMessage implements Endpoint.
func (c *Console) SendMessage(ctx context.Context, to identity.ID, text string, buttons ...Button) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "-> %s: %s\n", to, text)
	for _, b := range buttons {
		fmt.Fprintf(c.out, "   [%s] (press %s)\n", b.Label, b.Token)
	}
	return nil
}

// SendDocument implements Endpoint.
func (c *Console) SendDocument(ctx context.Context, to identity.ID, fileRef, caption string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "-> %s: <document %s>\n", to, fileRef)
	if caption != "" {
		fmt.Fprintf(c.out, "   %s\n", strings.ReplaceAll(caption, "\n", "\n   "))
	}
	return nil
}
