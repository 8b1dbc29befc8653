// Package appflow serves administrator-defined app flows: ordered sequences
// of URLs that a visitor steps through as an embedded assessment reports
// scores back to the hosting page
package appflow

const (
	// Name is the service name reported in logs and health responses
	Name = "appflow"

	// Version is the current service version
	Version = "0.3.0"
)
