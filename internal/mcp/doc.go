// Package mcp exposes a shell session as Model Context Protocol tools.
//
// The server owns one long-lived session, opened on the first tool call, so
// interpreter state carries over between calls. Tool calls are serialized
// by the session itself.
package mcp
