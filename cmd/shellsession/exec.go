package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	shellsession "github.com/wagiedev/shellsession-go"
)

func newExecCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command>...",
		Short: "Run one command in a fresh session and print its output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}

			result, err := shellsession.ExecuteSingleCommand(ctx, strings.Join(args, " "), opts...)
			if err != nil {
				return err
			}

			return printResult(cmd, result)
		},
	}
}

func newScriptCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "script <file> [params]...",
		Short: "Run a script file in a fresh session and print its output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}

			var result shellsession.CommandResult

			err = shellsession.WithSession(ctx, func(s *shellsession.Session) error {
				var err error

				result, err = s.ExecuteScriptFile(ctx, args[0], args[1:]...)

				return err
			}, opts...)
			if err != nil {
				return err
			}

			return printResult(cmd, result)
		},
	}
}

// printResult writes the output of result. Successful output goes to
// stdout, error output to stderr.
func printResult(cmd *cobra.Command, result shellsession.CommandResult) error {
	out := cmd.OutOrStdout()
	if result.IsError() {
		out = cmd.ErrOrStderr()
	}

	if text := result.Output(); text != "" {
		fmt.Fprintln(out, text)
	}

	switch {
	case result.IsTimeout():
		return &resultError{timeout: true}
	case result.IsError():
		return &resultError{}
	default:
		return nil
	}
}
