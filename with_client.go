package acpclient

import (
	"context"
	"fmt"
)

// WithClient manages client lifecycle with automatic cleanup.
//
// This helper creates a client, connects it with the provided options,
// executes the callback function, and ensures proper cleanup via Close()
// when done.
//
// The callback receives a connected Client with a ready session.
// If the callback returns an error, it is returned to the caller.
// If Close() fails, a warning is logged but does not override the callback's error.
//
// Example usage:
//
//	err := acpclient.WithClient(ctx, func(c acpclient.Client) error {
//	    stream, err := c.SendStream(ctx, acpclient.Text("Hello"))
//	    if err != nil {
//	        return err
//	    }
//	    reply, err := acpclient.Collect(stream)
//	    fmt.Println(reply)
//	    return err
//	},
//	    acpclient.WithLogger(log),
//	    acpclient.WithMode("plan"),
//	)
func WithClient(ctx context.Context, fn func(Client) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)
	log := getLoggerWithComponent(options, "with_client")

	client := newClientImpl(options)
	if err := client.Connect(ctx); err != nil {
		_ = client.Close()

		return fmt.Errorf("failed to connect client: %w", err)
	}

	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Warn("failed to close client", "error", closeErr)
		}
	}()

	return fn(client)
}
