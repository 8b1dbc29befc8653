package api

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/kode4food/appflow/pkg/util"
)

type (
	// Flow is an ordered list of steps exposed at a route matching its ID
	Flow struct {
		ID    FlowID  `json:"id"`
		Steps []*Step `json:"flow"`
	}

	// Step is one URL in a flow, the score required to unlock it, and how
	// the player should navigate to it
	Step struct {
		URL         string  `json:"url"`
		Conditional float64 `json:"conditional"`
		Redirect    bool    `json:"redirect,omitempty"`
		Display     Display `json:"display,omitempty"`
	}

	// Display selects how a non-redirect step is shown
	Display string
)

const (
	DisplayEmbed       Display = "embed"
	DisplayPlaceholder Display = "placeholder"

	// PlaceholderText is shown in place of URLs that cannot be framed
	PlaceholderText = "Redirecting to play store..."

	// legacyPlaceholderMarker flags unframeable store links on steps that
	// carry no explicit display
	legacyPlaceholderMarker = "google"
)

var (
	ErrFlowIDEmpty        = errors.New("flow ID empty")
	ErrFlowIDInvalid      = errors.New("flow ID contains invalid characters")
	ErrFlowIDReserved     = errors.New("flow ID is reserved")
	ErrFlowStepsEmpty     = errors.New("flow must have at least one step")
	ErrStepNil            = errors.New("step is nil")
	ErrStepURLEmpty       = errors.New("step URL empty")
	ErrStepURLInvalid     = errors.New("step URL must be absolute http(s)")
	ErrStepConditionalNaN = errors.New("step conditional must be finite")
	ErrStepDisplayInvalid = errors.New("invalid step display")
)

var (
	validDisplays = util.SetOf(DisplayEmbed, DisplayPlaceholder)
	validSchemes  = util.SetOf("http", "https")
)

// Normalize returns a copy of the flow with its ID normalized
func (f *Flow) Normalize() *Flow {
	res := *f
	res.ID = NormalizeID(f.ID)
	return &res
}

// Validate checks the flow ID and every step
func (f *Flow) Validate() error {
	if err := ValidateID(f.ID); err != nil {
		return err
	}
	if len(f.Steps) == 0 {
		return ErrFlowStepsEmpty
	}
	for i, s := range f.Steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks that the step has a usable URL, a finite threshold, and a
// known display mode
func (s *Step) Validate() error {
	if s == nil {
		return ErrStepNil
	}
	if s.URL == "" {
		return ErrStepURLEmpty
	}
	u, err := url.Parse(s.URL)
	if err != nil || !u.IsAbs() || u.Host == "" ||
		!validSchemes.Contains(strings.ToLower(u.Scheme)) {
		return fmt.Errorf("%w: %s", ErrStepURLInvalid, s.URL)
	}
	if math.IsNaN(s.Conditional) || math.IsInf(s.Conditional, 0) {
		return ErrStepConditionalNaN
	}
	if s.Display != "" && !validDisplays.Contains(s.Display) {
		return fmt.Errorf("%w: %s", ErrStepDisplayInvalid, s.Display)
	}
	return nil
}

// EffectiveDisplay resolves the display mode, falling back to the URL
// heuristic when the step does not set one
func (s *Step) EffectiveDisplay() Display {
	if s.Display != "" {
		return s.Display
	}
	if strings.Contains(s.URL, legacyPlaceholderMarker) {
		return DisplayPlaceholder
	}
	return DisplayEmbed
}
