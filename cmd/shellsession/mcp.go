package main

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/shellsession-go/internal/config"
	internalmcp "github.com/wagiedev/shellsession-go/internal/mcp"
)

func newMCPCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve a persistent shell session over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			settings, err := flags.settings(cmd)
			if err != nil {
				return err
			}

			// Stdout carries the protocol; logs go to stderr.
			log := flags.logger(cmd.ErrOrStderr())

			opts := &config.Options{Logger: log, Cwd: flags.cwd}
			opts.ApplyOverrides(settings, log)

			server := internalmcp.NewServer("shellsession", version, opts)

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				defer stop()

				err := server.Run(gctx, &mcp.StdioTransport{})
				if stderrors.Is(err, context.Canceled) {
					return nil
				}

				return err
			})

			g.Go(func() error {
				<-gctx.Done()
				log.Debug("MCP server stopping", "cause", context.Cause(gctx))

				return nil
			})

			return g.Wait()
		},
	}
}
