// Package client implements the ACP session engine.
//
// A Client owns one agent process at a time and walks it through the
// initialize handshake, session creation, default model and mode selection,
// and a sequence of prompt turns. Turn output is delivered through
// stream.Turn; tool activity is tracked by demux.Tracker and reported through
// hooks.
package client
