// Package protocol implements JSON-RPC request handling for ACP agents.
//
// The protocol package provides a Controller that correlates requests sent
// to the agent with their responses, routes agent notifications to an
// injected handler, and answers calls the agent makes back to the client.
// Session layers the typed ACP methods on top of a Controller.
//
// The Controller handles:
//   - Sending requests with monotonic integer ids
//   - Receiving and correlating responses
//   - Request timeout enforcement
//   - Handler registration for incoming calls from the agent
//   - Failing every waiter when the agent process exits
//
// Example usage:
//
//	supervisor := subprocess.New(log, options)
//	supervisor.Start(ctx)
//
//	controller := protocol.NewController(log, supervisor,
//		protocol.WithNotificationHandler(onUpdate))
//	controller.Start(ctx)
//
//	// Send a request with timeout
//	resp, err := controller.SendRequest(ctx, "initialize", params, 60*time.Second)
package protocol
