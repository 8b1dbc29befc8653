// Package api defines the public types shared by the appflow server, its
// stores, and the flow player
//
// This includes flow definitions, inbound score messages, outbound player
// commands, and the JSON request and response bodies of the HTTP API
package api
