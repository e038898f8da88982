// Package framing implements the Content-Length framed JSON-RPC 2.0 wire
// format spoken by ACP agents over stdio.
//
// A Decoder accepts stdout bytes in chunks of any size and yields complete
// messages in wire order. Encode produces the matching outbound frames.
// Malformed frames are skipped and reported as *errors.FrameError so callers
// can detect desynchronization.
package framing
