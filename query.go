package acpclient

import (
	"context"
	"iter"
	"log/slog"
)

// getLoggerWithComponent returns the configured logger, or a silent one,
// tagged with component.
func getLoggerWithComponent(options *Options, component string) *slog.Logger {
	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	return log.With("component", component)
}

// Query runs a single prompt against a fresh agent and streams the reply.
//
// The agent is started, a session is created, the prompt is sent, and the
// agent is stopped once the sequence ends or the caller stops iterating.
//
// Example usage:
//
//	for chunk, err := range acpclient.Query(ctx, acpclient.Text("What is 2+2?"),
//	    acpclient.WithModel("haiku"),
//	) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Print(chunk)
//	}
//
// Errors are yielded inline as the second value and end the sequence.
func Query(ctx context.Context, req *PromptRequest, opts ...Option) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		options := applyOptions(opts)
		log := getLoggerWithComponent(options, "query")

		client := newClientImpl(options)

		defer func() {
			if err := client.Close(); err != nil {
				log.Warn("Failed to close client", "error", err)
			}
		}()

		log.Debug("Starting query")

		stream, err := client.SendStream(ctx, req)
		if err != nil {
			yield("", err)

			return
		}

		for chunk, err := range stream {
			if !yield(chunk, err) || err != nil {
				return
			}
		}

		log.Debug("Query complete")
	}
}

// QueryText is Query for a plain-text prompt, returning the whole reply.
func QueryText(ctx context.Context, text string, opts ...Option) (string, error) {
	return Collect(Query(ctx, Text(text), opts...))
}
