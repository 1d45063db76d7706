// Package mcp implements the mcp.server module: it exposes session memory
// as Model Context Protocol tools over streamable HTTP, so agent runtimes
// can read and write memory without going through the REST gateway.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/recall/internal/core"
	"github.com/flemzord/recall/pkg/session"
)

func init() {
	core.RegisterModule(&Module{})
}

// Interface guards.
var (
	_ core.Module       = (*Module)(nil)
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// MemoryService is the slice of the memory module the MCP tools need.
type MemoryService interface {
	Read(ctx context.Context, sessionID string) (session.Memory, error)
	Append(ctx context.Context, sessionID string, msgs []session.Message) error
	Delete(ctx context.Context, sessionID string) error
}

// Config holds the mcp.server module configuration.
type Config struct {
	// Bind is the listen address for the streamable HTTP transport.
	Bind string `yaml:"bind"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func (c *Config) defaults() {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8081"
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Module is the mcp.server module.
type Module struct {
	config Config
	appCtx *core.AppContext
	logger *slog.Logger
	svc    MemoryService
	http   *server.StreamableHTTPServer
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "mcp.server",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("mcp: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.appCtx = ctx
	m.logger = ctx.Logger
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", m.config.Bind); err != nil {
		return errors.New("mcp: invalid bind address: " + m.config.Bind)
	}
	return nil
}

// Start implements core.Starter.
func (m *Module) Start() error {
	if svc, ok := m.appCtx.Service("memory.service"); ok {
		m.svc, _ = svc.(MemoryService)
	}
	if m.svc == nil {
		return errors.New("mcp: memory.service not available")
	}

	s := server.NewMCPServer("recall", "1.0.0",
		server.WithToolCapabilities(false),
	)
	m.registerTools(s)

	m.http = server.NewStreamableHTTPServer(s)
	go func() {
		m.logger.Info("mcp server listening", "addr", m.config.Bind)
		if err := m.http.Start(m.config.Bind); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("mcp serve error", "error", err)
		}
	}()
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	if m.http == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, m.config.ShutdownTimeout)
	defer cancel()
	m.logger.Info("mcp server shutting down")
	return m.http.Shutdown(shutdownCtx)
}

func (m *Module) registerTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("memory_read",
		mcp.WithDescription("Read a session's recent message window and compacted context."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier.")),
	), m.handleRead)

	s.AddTool(mcp.NewTool("memory_append",
		mcp.WithDescription("Append one message to a session's memory."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier.")),
		mcp.WithString("role", mcp.Required(), mcp.Description(`Message role; must not contain ": ".`)),
		mcp.WithString("content", mcp.Required(), mcp.Description("Message content.")),
	), m.handleAppend)

	s.AddTool(mcp.NewTool("memory_delete",
		mcp.WithDescription("Delete a session's memory and context. Idempotent."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier.")),
	), m.handleDelete)
}

func (m *Module) handleRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := stringArg(req, "session_id")
	if !ok {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	mem, err := m.svc.Read(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if mem.Messages == nil {
		mem.Messages = []session.Message{}
	}

	data, err := json.Marshal(mem)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (m *Module) handleAppend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := stringArg(req, "session_id")
	if !ok {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	role, ok := stringArg(req, "role")
	if !ok {
		return mcp.NewToolResultError("role is required"), nil
	}
	content, ok := stringArg(req, "content")
	if !ok {
		return mcp.NewToolResultError("content is required"), nil
	}

	err := m.svc.Append(ctx, id, []session.Message{{Role: role, Content: content}})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(`{"status":"Ok"}`), nil
}

func (m *Module) handleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := stringArg(req, "session_id")
	if !ok {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	if err := m.svc.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(`{"status":"Ok"}`), nil
}

func stringArg(req mcp.CallToolRequest, name string) (string, bool) {
	v, ok := req.GetArguments()[name].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
