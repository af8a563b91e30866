package shellsession

import (
	"context"
	"fmt"
)

// WithSession manages session lifecycle with automatic cleanup.
//
// This helper opens a session with the provided options, executes the
// callback function, and closes the session when done, also when the
// callback panics.
//
// Example usage:
//
//	err := shellsession.WithSession(ctx, func(s *shellsession.Session) error {
//	    result, err := s.ExecuteCommand(ctx, "Get-ChildItem")
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(result.Output())
//	    return nil
//	},
//	    shellsession.WithLogger(log),
//	    shellsession.WithMaxWait(30*time.Second),
//	)
func WithSession(ctx context.Context, fn func(*Session) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s, err := Open(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	defer func() {
		_ = s.Close()
	}()

	return fn(s)
}
