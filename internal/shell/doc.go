// Package shell resolves which interpreter a session launches and how to
// talk to it.
//
// This package provides two capabilities:
//
// # Interpreter Discovery
//
// The Resolver locates the interpreter binary and builds its invocation:
//
//	resolver := shell.NewResolver(&shell.Config{
//	    ExecutablePath: "",      // Optional explicit path or name
//	    Logger:         slog.Default(),
//	})
//	inv, err := resolver.Resolve()
//
// Discovery searches in the following order:
//  1. Explicit path in Config.ExecutablePath (if provided)
//  2. The SHELLSESSION_EXECUTABLE environment variable
//  3. The platform default (powershell.exe or pwsh on Windows, sh elsewhere)
//
// # Dialects
//
// A Dialect captures the few bits of interpreter syntax a session needs
// without understanding the language: how to print a literal line, how to
// invoke a script file, how to exit, and which line terminator it emits.
package shell
