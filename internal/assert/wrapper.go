package assert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/appflow/internal/config"
	"github.com/kode4food/appflow/internal/player"
	"github.com/kode4food/appflow/pkg/api"
)

// Wrapper wraps testify assertions with appflow-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
}

// DefaultRetryInterval is the default polling interval for Eventually checks
const DefaultRetryInterval = 10 * time.Millisecond

// New creates a new test assertion wrapper
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
	}
}

// FlowValid asserts that a flow passes validation
func (w *Wrapper) FlowValid(f *api.Flow) {
	w.Helper()
	w.NoError(f.Validate())
	w.NotEmpty(f.ID)
	w.NotEmpty(f.Steps)
}

// FlowInvalid asserts that a flow fails validation with the expected error
func (w *Wrapper) FlowInvalid(f *api.Flow, expected error) {
	w.Helper()
	w.ErrorIs(f.Validate(), expected)
}

// PlayerAt asserts the player's current index and URL
func (w *Wrapper) PlayerAt(p *player.Player, index int, url string) {
	w.Helper()
	st := p.State()
	w.Equal(index, st.Index, "player index")
	w.Equal(url, st.URL, "player URL")
}

// ActionIs asserts the kind and URL of a player action
func (w *Wrapper) ActionIs(
	a player.Action, kind player.ActionKind, url string,
) {
	w.Helper()
	w.Equal(kind, a.Kind, "action kind")
	w.Equal(url, a.URL, "action URL")
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.APIPort > 0 && cfg.APIPort <= config.MaxTCPPort)
	w.NotEmpty(cfg.TrustedOrigins)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Error(err)
	if err != nil && contains != "" {
		w.Contains(err.Error(), contains)
	}
}

// Eventually runs a condition repeatedly until it passes or times out
func (w *Wrapper) Eventually(
	condition func() bool, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(DefaultRetryInterval)
	}
	w.Fail(msg, args...)
}
