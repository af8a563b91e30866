package shellsession

import (
	internalmcp "github.com/wagiedev/shellsession-go/internal/mcp"
)

// MCPServer exposes one lazily opened shell session as MCP tools:
// execute_command, execute_script, configure_session and session_info.
//
// Example:
//
//	server := shellsession.NewMCPServer("shell", "1.0.0",
//	    shellsession.WithMaxWait(30*time.Second),
//	)
//	err := server.Run(ctx, &mcp.StdioTransport{})
type MCPServer = internalmcp.Server

// MCP tool names.
const (
	ToolExecuteCommand = internalmcp.ToolExecuteCommand
	ToolExecuteScript  = internalmcp.ToolExecuteScript
	ToolConfigure      = internalmcp.ToolConfigure
	ToolSessionInfo    = internalmcp.ToolSessionInfo
)

// NewMCPServer creates an MCP server whose tools drive a session opened
// with opts on the first tool call. Run serves it; the session is closed
// when Run returns.
func NewMCPServer(name, version string, opts ...Option) *MCPServer {
	return internalmcp.NewServer(name, version, applyOptions(opts))
}
