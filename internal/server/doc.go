// Package server implements the appflow HTTP server
//
// This package serves the player page for each flow, the websocket session
// that relays score messages to a flow player, and the session-guarded
// administrator API for managing flows
package server
