package acpclient

import "github.com/wagiedev/acp-client-go/internal/config"

// Transport is the byte-level link to an agent process.
// Implement this to provide custom transports for testing, mocking,
// or alternative communication methods (e.g., remote connections).
//
// The default implementation spawns the agent as a subprocess.
// Custom transports can be injected via WithTransport.
type Transport = config.Transport
