package api

import (
	"regexp"
	"strings"

	"github.com/kode4food/appflow/pkg/util"
)

// FlowID is a unique, URL-safe identifier for a flow
type FlowID string

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	validIDChars   = regexp.MustCompile(`^[A-Za-z0-9._~-]+$`)

	// ReservedIDs cannot be used as flow IDs because they collide with
	// top-level routes
	ReservedIDs = util.SetOf[FlowID]("api", "health", "static")
)

// NormalizeID trims an ID and replaces each run of whitespace with a single
// hyphen
func NormalizeID[T ~string](id T) T {
	trimmed := strings.TrimSpace(string(id))
	return T(whitespaceRuns.ReplaceAllString(trimmed, "-"))
}

// ValidateID checks that a normalized ID is non-empty, URL-safe, and not
// reserved
func ValidateID(id FlowID) error {
	if id == "" {
		return ErrFlowIDEmpty
	}
	if !validIDChars.MatchString(string(id)) {
		return ErrFlowIDInvalid
	}
	if ReservedIDs.Contains(id) {
		return ErrFlowIDReserved
	}
	return nil
}
