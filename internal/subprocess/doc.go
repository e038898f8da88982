// Package subprocess supervises the agent process.
//
// The Supervisor spawns the agent, exposes its stdout as raw byte chunks,
// serializes writes to its stdin, and buffers stderr for diagnostics. When
// the process exits on its own, Done is closed and Err reports a
// *errors.ProcessTerminatedError so callers can fail outstanding work.
package subprocess
