// Package player implements the flow traversal state machine
//
// A Player owns the position of one visitor within one flow. It consumes
// relayed score messages, decides whether the visitor advances to the next
// step, and reports how the embedding page should navigate there
package player
