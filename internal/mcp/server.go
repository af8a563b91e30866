package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/shellsession-go/internal/config"
	"github.com/wagiedev/shellsession-go/internal/session"
)

// Tool names.
const (
	ToolExecuteCommand = "execute_command"
	ToolExecuteScript  = "execute_script"
	ToolConfigure      = "configure_session"
	ToolSessionInfo    = "session_info"
)

// Server serves one shell session over MCP.
type Server struct {
	log     *slog.Logger
	opts    *config.Options
	server  *mcp.Server
	mu      sync.Mutex
	session *session.Session
}

// NewServer creates a server named name. opts configure the session that
// is opened on the first tool call.
func NewServer(name, version string, opts *config.Options) *Server {
	opts = opts.WithDefaults()

	s := &Server{
		log:  opts.Logger.With("component", "mcp_server"),
		opts: opts,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    name,
			Version: version,
		}, nil),
	}

	s.server.AddTool(NewTool(ToolExecuteCommand,
		"Run one command in the persistent shell session and return its output. "+
			"Variables and the working directory persist between calls.",
		SimpleSchema(map[string]string{"command": "string"}),
	), s.executeCommand)

	s.server.AddTool(NewTool(ToolExecuteScript,
		"Run a multi-line script in the persistent shell session. "+
			"The script may pause its output; it runs until it finishes or the session's max wait elapses.",
		SimpleSchema(map[string]string{"script": "string", "params": "[]string"}, "params"),
	), s.executeScript)

	s.server.AddTool(NewTool(ToolConfigure,
		"Change session timing: waitPause and maxWait (milliseconds), tempFolder, remoteMode. "+
				"Settings carry over if the session is reopened.",
		SimpleSchema(map[string]string{"settings": "map[string]string"}),
	), s.configure)

	s.server.AddTool(NewTool(ToolSessionInfo,
		"Describe the shell session: id, process id, dialect and executable.",
		SimpleSchema(map[string]string{}),
	), s.sessionInfo)

	return s
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// Run serves on transport until ctx ends or the client disconnects, then
// closes the session.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	defer func() {
		if err := s.Close(); err != nil {
			s.log.Warn("Failed to close shell session", "error", err)
		}
	}()

	s.log.Info("Serving shell session over MCP")

	if err := s.server.Run(ctx, transport); err != nil {
		return fmt.Errorf("run mcp server: %w", err)
	}

	return nil
}

// Close closes the session, if one was opened.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}

	err := s.session.Close()
	s.session = nil

	return err
}

// acquire returns the open session, opening a new one when there is none
// or the previous one was closed.
func (s *Server) acquire(ctx context.Context) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil && !s.session.Closed() {
		return s.session, nil
	}

	sess, err := session.Open(ctx, s.opts)
	if err != nil {
		s.log.Error("Failed to open shell session", "error", err)

		return nil, err
	}

	s.session = sess
	s.log.Debug("Opened shell session", "session_id", sess.ID(), "pid", sess.Pid())

	return sess, nil
}

func (s *Server) executeCommand(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := ParseArguments(req)
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	command, err := stringArg(args, "command")
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	sess, err := s.acquire(ctx)
	if err != nil {
		return ErrorResult("cannot open shell session: " + err.Error()), nil
	}

	result, err := sess.ExecuteCommand(ctx, command)
	if err != nil {
		return ErrorResult("command failed: " + err.Error()), nil
	}

	return toolResult(result), nil
}

func (s *Server) executeScript(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := ParseArguments(req)
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	script, err := stringArg(args, "script")
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	params, err := stringSliceArg(args, "params")
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	sess, err := s.acquire(ctx)
	if err != nil {
		return ErrorResult("cannot open shell session: " + err.Error()), nil
	}

	result, err := sess.ExecuteScript(ctx, strings.NewReader(script), params...)
	if err != nil {
		return ErrorResult("script failed: " + err.Error()), nil
	}

	return toolResult(result), nil
}

func (s *Server) configure(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := ParseArguments(req)
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	settings, err := stringMapArg(args, "settings")
	if err != nil {
		return ErrorResult(err.Error()), nil
	}

	sess, err := s.acquire(ctx)
	if err != nil {
		return ErrorResult("cannot open shell session: " + err.Error()), nil
	}

	sess.Configure(settings)
	s.remember(settings)

	return TextResult(fmt.Sprintf("applied %d setting(s)", len(settings))), nil
}

// remember applies the runtime settings to the options a reopened session
// starts from.
func (s *Server) remember(settings map[string]string) {
	applied := make(map[string]string, len(settings))

	for key, value := range settings {
		if config.IsRuntimeKey(key) {
			applied[key] = value
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.opts.ApplyOverrides(applied, s.log)
}

type infoPayload struct {
	ID         string `json:"id"`
	Pid        int    `json:"pid"`
	Dialect    string `json:"dialect"`
	Executable string `json:"executable"`
}

func (s *Server) sessionInfo(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.acquire(ctx)
	if err != nil {
		return ErrorResult("cannot open shell session: " + err.Error()), nil
	}

	data, err := json.Marshal(infoPayload{
		ID:         sess.ID(),
		Pid:        sess.Pid(),
		Dialect:    string(sess.Dialect().Kind),
		Executable: sess.Executable(),
	})
	if err != nil {
		return ErrorResult("encode session info: " + err.Error()), nil
	}

	return TextResult(string(data)), nil
}

// toolResult maps a command result onto a tool result. Timeouts are errors
// carrying whatever output arrived in time.
func toolResult(result session.CommandResult) *mcp.CallToolResult {
	switch {
	case result.IsTimeout():
		msg := "command timed out"
		if out := result.Output(); out != "" {
			msg += "; partial output:\n" + out
		}

		return ErrorResult(msg)
	case result.IsError():
		return ErrorResult(result.Output())
	default:
		return TextResult(result.Output())
	}
}
