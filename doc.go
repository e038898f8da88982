// Package acpclient is a Go client for agents that speak the Agent Client
// Protocol (ACP) over stdio.
//
// The client launches the agent as a subprocess and exchanges
// Content-Length framed JSON-RPC 2.0 messages with it. It performs the
// initialize handshake, creates a session, selects a model and mode, and
// turns the agent's session/update notifications into a stream of response
// text. Tool calls are tracked, output produced by delegated sub-agents is
// hidden, and permission requests are answered by a configurable policy.
//
// # Basic Usage
//
// For a single prompt, use Query:
//
//	ctx := context.Background()
//	for chunk, err := range acpclient.Query(ctx, acpclient.Text("What is 2+2?")) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Print(chunk)
//	}
//
// # Sessions
//
// For multi-turn conversations, use NewClient or the WithClient helper:
//
//	client := acpclient.NewClient(
//	    acpclient.WithLogger(slog.Default()),
//	    acpclient.WithModel("sonnet"),
//	    acpclient.WithPermissionHandler(acpclient.RejectPolicy),
//	)
//	defer client.Close()
//
//	stream, err := client.SendStream(ctx, &acpclient.PromptRequest{
//	    Text:        "Why does this fail?",
//	    CurrentFile: &acpclient.File{Path: "main.go", Text: src},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reply, err := acpclient.Collect(stream)
//
// Only one turn runs at a time; SendStream returns ErrPromptInFlight while
// a turn is active. Breaking out of the stream or cancelling its context
// detaches the consumer without ending the turn; use Cancel to ask the
// agent to stop.
//
// # Providers
//
// Client implements Provider. NewAnthropicProvider and NewOpenAIProvider
// return Providers that call the vendor HTTP APIs directly, so callers can
// switch backends without changing how they consume responses.
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	client := acpclient.NewClient(acpclient.WithLogger(logger))
//
// # Error Handling
//
// The package provides typed errors for different failure scenarios:
//
//	if err := client.Connect(ctx); err != nil {
//	    if nf, ok := errors.AsType[*acpclient.BinaryNotFoundError](err); ok {
//	        log.Fatalf("agent not installed, searched: %v", nf.SearchedPaths)
//	    }
//	    if initErr, ok := errors.AsType[*acpclient.InitializeError](err); ok {
//	        log.Fatalf("agent rejected %s: %v", initErr.Stage, initErr.Err)
//	    }
//	    log.Fatal(err)
//	}
//
// If the agent process exits, the active stream and every pending request
// fail with ProcessTerminatedError.
//
// # Requirements
//
// An ACP agent executable must be installed. By default claude-code-acp is
// searched in PATH; use WithAgentPath or the ACP_AGENT_PATH environment
// variable to point at another agent.
package acpclient
