package player

import (
	"errors"

	"github.com/kode4food/appflow/pkg/api"
	"github.com/kode4food/appflow/pkg/util"
)

type (
	// Player tracks one visitor's position within a flow. It is not safe
	// for concurrent use; a session feeds it messages sequentially
	Player struct {
		flow    *api.Flow
		origins util.Set[string]
		index   int
		done    bool
	}

	// State is a snapshot of a Player's position
	State struct {
		URL   string `json:"url"`
		Index int    `json:"index"`
		Done  bool   `json:"done"`
	}

	// ActionKind describes what a handled message asks the page to do
	ActionKind string

	// Action is the outcome of handling a message
	Action struct {
		Kind        ActionKind
		URL         string
		Index       int
		Placeholder bool
	}
)

const (
	// Stay leaves the current display untouched
	Stay ActionKind = "stay"

	// Embed replaces the displayed URL in place
	Embed ActionKind = "embed"

	// Redirect navigates the top-level page away from the player
	Redirect ActionKind = "redirect"
)

var (
	ErrNoSteps         = errors.New("flow has no steps")
	ErrNoOrigins       = errors.New("no trusted origins")
	ErrUntrustedOrigin = errors.New("untrusted message origin")
	ErrPlayerDone      = errors.New("player has redirected")
)

// New creates a Player positioned at the first step of the flow. Only
// messages whose origin exactly matches one of origins are honored
func New(flow *api.Flow, origins []string) (*Player, error) {
	if flow == nil || len(flow.Steps) == 0 {
		return nil, ErrNoSteps
	}
	if len(origins) == 0 {
		return nil, ErrNoOrigins
	}
	return &Player{
		flow:    flow,
		origins: util.SetOf(origins...),
	}, nil
}

// Handle applies one relayed message. Messages from untrusted origins,
// malformed payloads, and anything received after a redirect are rejected
// with an error and leave the state unchanged
func (p *Player) Handle(msg *api.ScoreMessage) (Action, error) {
	if p.done {
		return p.stay(), ErrPlayerDone
	}
	if msg == nil {
		return p.stay(), api.ErrInvalidMessage
	}
	if !p.origins.Contains(msg.Origin) {
		return p.stay(), ErrUntrustedOrigin
	}
	score, err := msg.Score()
	if err != nil {
		return p.stay(), err
	}
	return p.advance(score.Value), nil
}

// advance applies an already-trusted score. The score is compared against
// the threshold of the next step, not the current one
func (p *Player) advance(score float64) Action {
	if p.done {
		return p.stay()
	}
	next := p.index + 1
	if next >= len(p.flow.Steps) {
		return p.stay()
	}
	if score <= p.flow.Steps[next].Conditional {
		return p.stay()
	}

	p.index = next
	step := p.flow.Steps[next]
	if step.Redirect {
		p.done = true
		return Action{
			Kind:  Redirect,
			URL:   step.URL,
			Index: next,
		}
	}
	return p.Current()
}

// Current returns the display action for the current step
func (p *Player) Current() Action {
	step := p.flow.Steps[p.index]
	if p.done {
		return Action{
			Kind:  Redirect,
			URL:   step.URL,
			Index: p.index,
		}
	}
	return Action{
		Kind:        Embed,
		URL:         step.URL,
		Index:       p.index,
		Placeholder: step.EffectiveDisplay() == api.DisplayPlaceholder,
	}
}

// State returns a snapshot of the player's position
func (p *Player) State() State {
	return State{
		URL:   p.flow.Steps[p.index].URL,
		Index: p.index,
		Done:  p.done,
	}
}

// Done reports whether the player has issued a redirect
func (p *Player) Done() bool {
	return p.done
}

// FlowID returns the ID of the flow being played
func (p *Player) FlowID() api.FlowID {
	return p.flow.ID
}

func (p *Player) stay() Action {
	return Action{
		Kind:  Stay,
		URL:   p.flow.Steps[p.index].URL,
		Index: p.index,
	}
}

// Command converts an action into the command sent to the embedding page.
// Stay actions produce no command
func (a Action) Command() (*api.PlayerCommand, bool) {
	switch a.Kind {
	case Redirect:
		return &api.PlayerCommand{
			Type:  api.CommandRedirect,
			URL:   a.URL,
			Index: a.Index,
		}, true
	case Embed:
		if a.Placeholder {
			return &api.PlayerCommand{
				Type:  api.CommandPlaceholder,
				URL:   a.URL,
				Text:  api.PlaceholderText,
				Index: a.Index,
			}, true
		}
		return &api.PlayerCommand{
			Type:  api.CommandEmbed,
			URL:   a.URL,
			Index: a.Index,
		}, true
	default:
		return nil, false
	}
}
