// Package shellsession drives a long-lived command interpreter (PowerShell
// or a POSIX shell) over its standard streams.
//
// A Session keeps one interpreter process alive and runs commands on it one
// at a time, so state such as variables, the working directory and loaded
// modules carries over between commands.
//
// # Basic Usage
//
//	ctx := context.Background()
//	session, err := shellsession.Open(ctx,
//	    shellsession.WithMaxWait(30*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	result, err := session.ExecuteCommand(ctx, "Get-Process")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(result.Output())
//
// For a single command, ExecuteSingleCommand opens and closes a session:
//
//	result, err := shellsession.ExecuteSingleCommand(ctx, "Get-Date")
//
// WithSession runs a callback against a session and always closes it:
//
//	err := shellsession.WithSession(ctx, func(s *shellsession.Session) error {
//	    result, err := s.ExecuteScriptFile(ctx, "deploy.ps1", "-Verbose")
//	    if err != nil {
//	        return err
//	    }
//	    return result.Err()
//	})
//
// # Completion Detection
//
// Interpreters do not mark the end of a command's output. A command is
// considered finished when its output goes idle for WaitPause plus a short
// settle delay, or when MaxWait elapses. A command that pauses its output
// longer than that is cut short; run it as a script instead. Scripts end
// with a sentinel line, so their completion is detected exactly.
//
// Commands that print nothing are reported as timeouts. WithRemoteMode adds
// a trailing marker line to every command to avoid that.
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	session, err := shellsession.Open(ctx, shellsession.WithLogger(logger))
//
// # MCP Server
//
// NewMCPServer serves one session as Model Context Protocol tools
// (execute_command, execute_script, configure_session, session_info):
//
//	server := shellsession.NewMCPServer("shell", "1.0.0")
//	err := server.Run(ctx, &mcp.StdioTransport{})
//
// # Error Handling
//
// Open returns a LaunchError when the interpreter cannot be started. Once a
// session is open, failures of the command itself are reported through
// CommandResult (IsError, IsTimeout); CommandResult.Err converts them into
// errors:
//
//	result, err := session.ExecuteCommand(ctx, "Remove-Item missing.txt")
//	if errors.Is(err, shellsession.ErrSessionClosed) {
//	    return err
//	}
//	if execErr, ok := errors.AsType[*shellsession.ExecutionError](result.Err()); ok {
//	    log.Printf("command failed: %s", execErr.Output)
//	}
package shellsession
