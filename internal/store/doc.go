// Package store persists flow definitions
//
// All flows live in a single JSON document holding an array of flows. Lookups
// scan that array by ID. Two backends are provided: Redis, where the
// document is one string key, and any gocloud.dev blob bucket, where it is
// one object
package store
