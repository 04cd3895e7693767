package mcp

import (
	"context"
	"fmt"
	"os"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/carprun/internal/config"
	"github.com/nvandessel/carprun/internal/ratelimit"
	"github.com/nvandessel/carprun/internal/store"
)

// Server wraps the MCP SDK server and provides carprun-specific tools.
type Server struct {
	server       *sdk.Server
	config       *config.CarpConfig
	history      store.RunStore
	root         string
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	now          func() time.Time
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "carprun")
	Version string // Server version
	Root    string // Output root for job directories

	// Carp is the loaded carprun configuration. Nil loads it from disk.
	Carp *config.CarpConfig
	// History overrides the run ledger. Nil opens the configured database
	// when history is enabled.
	History store.RunStore
}

// NewServer creates a new MCP server with carprun tools.
func NewServer(cfg *Config) (*Server, error) {
	carpCfg := cfg.Carp
	if carpCfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		carpCfg = loaded
	}

	history := cfg.History
	if history == nil && carpCfg.History.Enabled {
		path := carpCfg.History.Path
		if path == "" {
			var err error
			if path, err = store.DefaultPath(); err != nil {
				return nil, err
			}
		}
		s, err := store.NewSQLiteRunStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open run history: %w", err)
		}
		history = s
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			// Client initialized, ready to serve
		},
	})

	var auditLogger *AuditLogger
	if dir, err := config.Dir(); err == nil {
		auditLogger = NewAuditLogger(dir)
	}

	s := &Server{
		server:       mcpServer,
		config:       carpCfg,
		history:      history,
		root:         cfg.Root,
		toolLimiters: ratelimit.NewToolLimiters(),
		auditLogger:  auditLogger,
		now:          time.Now,
	}

	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	s.Close()
	return err
}

// Close closes the server and releases resources. It is safe to call more
// than once.
func (s *Server) Close() error {
	var firstErr error
	if s.history != nil {
		firstErr = s.history.Close()
		s.history = nil
	}
	if err := s.auditLogger.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	s.auditLogger = nil
	return firstErr
}
