package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/shellsession-go/internal/config"
)

func connect(t *testing.T, opts *config.Options) (*Server, *mcp.ClientSession) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("Test requires /bin/sh")
	}

	if opts == nil {
		opts = &config.Options{}
	}

	opts.Logger = slog.Default()
	opts.ExecutablePath = "/bin/sh"

	if opts.MaxWait == 0 {
		opts.MaxWait = 2 * time.Second
	}

	srv := NewServer("shellsession-test", "0.0.1", opts)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()

	_, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)

	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = srv.Close()
	})

	return srv, cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])

	return text.Text, res.IsError
}

func TestServer_ListTools(t *testing.T) {
	_, cs := connect(t, nil)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}

	slices.Sort(names)
	require.Equal(t, []string{ToolConfigure, ToolExecuteCommand, ToolExecuteScript, ToolSessionInfo}, names)
}

func TestServer_ExecuteCommandKeepsState(t *testing.T) {
	_, cs := connect(t, nil)

	_, isError := callTool(t, cs, ToolExecuteCommand, map[string]any{"command": "COLOR=teal; echo ok"})
	require.False(t, isError)

	text, isError := callTool(t, cs, ToolExecuteCommand, map[string]any{"command": `echo "$COLOR"`})
	require.False(t, isError)
	require.Equal(t, "teal", text)
}

func TestServer_ExecuteCommandErrors(t *testing.T) {
	_, cs := connect(t, nil)

	text, isError := callTool(t, cs, ToolExecuteCommand, map[string]any{"command": "echo broken >&2"})
	require.True(t, isError)
	require.Equal(t, "broken", text)

	text, isError = callTool(t, cs, ToolExecuteCommand, map[string]any{})
	require.True(t, isError)
	require.Contains(t, text, "command")
}

func TestServer_ExecuteCommandTimeout(t *testing.T) {
	_, cs := connect(t, &config.Options{MaxWait: 150 * time.Millisecond})

	text, isError := callTool(t, cs, ToolExecuteCommand, map[string]any{"command": "sleep 1"})
	require.True(t, isError)
	require.Contains(t, text, "timed out")
}

func TestServer_ExecuteScript(t *testing.T) {
	_, cs := connect(t, &config.Options{TempFolder: t.TempDir()})

	text, isError := callTool(t, cs, ToolExecuteScript, map[string]any{
		"script": "echo \"first $1\"\necho \"second $2\"",
		"params": []any{"a", "b"},
	})
	require.False(t, isError)
	require.Equal(t, "first a\nsecond b", text)

	text, isError = callTool(t, cs, ToolExecuteScript, map[string]any{
		"script": "echo x",
		"params": "not-a-list",
	})
	require.True(t, isError)
	require.Contains(t, text, "params")
}

func TestServer_ConfigureAndInfo(t *testing.T) {
	srv, cs := connect(t, nil)

	text, isError := callTool(t, cs, ToolConfigure, map[string]any{
		"settings": map[string]any{"maxWait": 250, "remoteMode": true},
	})
	require.False(t, isError)
	require.Equal(t, "applied 2 setting(s)", text)

	// Remote mode lets a silent command complete.
	_, isError = callTool(t, cs, ToolExecuteCommand, map[string]any{"command": "true"})
	require.False(t, isError)

	text, isError = callTool(t, cs, ToolSessionInfo, map[string]any{})
	require.False(t, isError)

	var info infoPayload
	require.NoError(t, json.Unmarshal([]byte(text), &info))
	require.Equal(t, "posix", info.Dialect)
	require.Equal(t, "/bin/sh", info.Executable)
	require.Positive(t, info.Pid)
	require.Equal(t, srv.session.ID(), info.ID)
}

func TestServer_LaunchFailure(t *testing.T) {
	_, cs := connect(t, nil)

	// Point the next session at a missing interpreter.
	srv := NewServer("broken", "0.0.1", &config.Options{ExecutablePath: "/nonexistent/shell"})
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	_, err := srv.MCPServer().Connect(context.Background(), serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	broken, err := client.Connect(context.Background(), clientTransport, nil)
	require.NoError(t, err)

	defer func() { _ = broken.Close() }()

	text, isError := callTool(t, broken, ToolExecuteCommand, map[string]any{"command": "echo hi"})
	require.True(t, isError)
	require.Contains(t, text, "cannot open shell session")

	// The healthy server is unaffected.
	text, isError = callTool(t, cs, ToolExecuteCommand, map[string]any{"command": "echo healthy"})
	require.False(t, isError)
	require.Equal(t, "healthy", text)
}

func TestServer_CloseWithoutSession(t *testing.T) {
	srv := NewServer("idle", "0.0.1", nil)

	require.NoError(t, srv.Close())
}

func TestServer_ConfigureSurvivesReopen(t *testing.T) {
	srv, cs := connect(t, &config.Options{MaxWait: 300 * time.Millisecond})

	text, isErr := callTool(t, cs, ToolConfigure, map[string]any{
		"settings": map[string]any{"remoteMode": "true", "maxWait": "1500"},
	})
	require.False(t, isErr, text)

	require.NoError(t, srv.Close())

	start := time.Now()
	text, isErr = callTool(t, cs, ToolExecuteCommand, map[string]any{"command": "sleep 0.5"})
	require.False(t, isErr, text)
	require.Less(t, time.Since(start), 1500*time.Millisecond)
}
