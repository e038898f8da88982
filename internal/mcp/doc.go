// Package mcp describes the Model Context Protocol servers an agent should
// attach to a session.
//
// Configurations are passed to session/new and serialized in the ACP list
// form, where environment variables and headers are name/value pairs.
package mcp
