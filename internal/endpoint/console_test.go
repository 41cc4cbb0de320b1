package endpoint_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rpggio/docvault/internal/endpoint"
	"github.com/rpggio/docvault/internal/identity"
	"github.com/stretchr/testify/require"
)

func TestConsole_DirectoryOnlyKnowsObservedHandles(t *testing.T) {
	c := endpoint.NewConsole(&bytes.Buffer{})
	ctx := context.Background()

	_, err := c.LookupHandle(ctx, "bob")
	require.Error(t, err)

	c.Observe("Bob", identity.ID(7))
	id, err := c.LookupHandle(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, identity.ID(7), id)
}

func TestConsole_PrintsDeliveries(t *testing.T) {
	var out bytes.Buffer
	c := endpoint.NewConsole(&out)
	ctx := context.Background()

	require.NoError(t, c.SendMessage(ctx, 1, "hello", endpoint.Button{Label: "Go", Token: "go"}))
	require.NoError(t, c.SendDocument(ctx, 1, "f1", "Project: Specs"))

	text := out.String()
	require.Contains(t, text, "-> 1: hello")
	require.Contains(t, text, "[Go] (press go)")
	require.Contains(t, text, "<document f1>")
	require.Contains(t, text, "Project: Specs")
}
