// Package mcp exposes a read-only agent tool surface over the project
// store. Tools act on behalf of an explicit user id and go through the
// same membership checks as chat commands; mutations stay chat-only.
package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/docvault/internal/domain/project"
)

const serverInstructions = `docvault holds named projects, each a linear history of uploaded
document versions with an owner/member permission model. These tools are
read-only views scoped to the acting user: projects the user is not a
member of are reported as not found. Uploading and committing documents
happens through the chat bot, not through these tools.`

// Config contains server configuration.
type Config struct {
	Store  *project.Store
	Logger *slog.Logger
}

// NewServer creates an MCP server with the read-only tools registered.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "docvault",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerTools(server, cfg.Store)
	return server
}
