// Package cli locates the agent executable and builds its command line.
//
// Discovery searches in the following order:
//  1. Explicit path in Config.AgentPath (if provided, nothing else is tried)
//  2. Config.Command on the system PATH
//  3. Common installation directories (/usr/local/bin, /usr/bin,
//     ~/.local/bin, ~/.npm-global/bin)
//
// A missing executable is reported as *errors.BinaryNotFoundError listing
// every location searched.
package cli
