package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/docvault/internal/config"
	"github.com/rpggio/docvault/internal/dispatch"
	"github.com/rpggio/docvault/internal/domain/project"
	"github.com/rpggio/docvault/internal/domain/session"
	"github.com/rpggio/docvault/internal/endpoint"
	"github.com/rpggio/docvault/internal/identity"
	"github.com/rpggio/docvault/internal/mcp"
	"github.com/rpggio/docvault/internal/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Stderr for logs in mcp mode to keep stdout clean for JSON-RPC; the
	// console transport owns stdout for deliveries too.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	gateway, cleanup, err := openGateway(cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to open snapshot storage", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	store := project.NewStore(gateway, logger)
	loaded, err := gateway.Load(context.Background())
	if err != nil {
		logger.Error("failed to load snapshot", "error", err)
		os.Exit(1)
	}
	store.Seed(loaded)
	logger.Info("store loaded", "projects", len(loaded), "driver", cfg.Storage.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	if cfg.Transport.Mode == "mcp" {
		runMCPMode(ctx, logger, store)
		return
	}
	runConsoleMode(ctx, logger, store)
}

func openGateway(cfg config.StorageConfig, logger *slog.Logger) (snapshot.Gateway, func(), error) {
	if err := ensureDir(cfg.Path); err != nil {
		return nil, nil, err
	}
	if cfg.Driver == "file" {
		return snapshot.NewFileGateway(cfg.Path, logger), func() {}, nil
	}
	gw, err := snapshot.OpenSQLite(cfg.Path, logger)
	if err != nil {
		return nil, nil, err
	}
	return gw, func() { gw.Close() }, nil
}

func runMCPMode(ctx context.Context, logger *slog.Logger, store *project.Store) {
	server := mcp.NewServer(mcp.Config{Store: store, Logger: logger})
	logger.Info("starting mcp stdio transport")
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

// runConsoleMode drives the dispatcher from stdin for local development.
// Directives:
//
//	:user <id> <display name>       switch the acting user
//	:upload <ref> <file> [caption]  simulate a document upload
//	:press <token>                  simulate a button activation
//
// Any other line is a chat message from the acting user.
func runConsoleMode(ctx context.Context, logger *slog.Logger, store *project.Store) {
	console := endpoint.NewConsole(os.Stdout)
	resolver := identity.NewResolver(console)
	dispatcher := dispatch.New(store, session.NewTable(), resolver, console, logger)

	actingID := identity.ID(1)
	actingName := "Dev"
	console.Observe(actingName, actingID)

	logger.Info("console transport ready", "user", actingID)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var ev dispatch.Event
		switch {
		case strings.HasPrefix(line, ":user "):
			fields := strings.Fields(line)
			if len(fields) < 3 {
				fmt.Println("usage: :user <id> <display name>")
				continue
			}
			id, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				fmt.Println("usage: :user <id> <display name>")
				continue
			}
			actingID = identity.ID(id)
			actingName = strings.Join(fields[2:], " ")
			console.Observe(fields[2], actingID)
			continue
		case strings.HasPrefix(line, ":upload "):
			fields := strings.Fields(line)
			if len(fields) < 3 {
				fmt.Println("usage: :upload <ref> <file> [caption]")
				continue
			}
			ev = dispatch.Event{
				Kind:     dispatch.KindUpload,
				From:     actingID,
				FromName: actingName,
				FileRef:  fields[1],
				FileName: fields[2],
				Caption:  strings.Join(fields[3:], " "),
			}
		case strings.HasPrefix(line, ":press "):
			ev = dispatch.Event{
				Kind:     dispatch.KindButton,
				From:     actingID,
				FromName: actingName,
				Token:    strings.TrimSpace(strings.TrimPrefix(line, ":press")),
			}
		default:
			ev = dispatch.ParseMessage(actingID, actingName, line)
		}

		if err := dispatcher.Dispatch(ctx, ev); err != nil {
			logger.Error("dispatch failed", "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("stdin read error", "error", err)
	}
}

func ensureDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
