package api

import "time"

type (
	// PlayerEventType identifies a player session lifecycle event
	PlayerEventType string

	// PlayerEvent is published for every notable player session change
	PlayerEvent struct {
		Timestamp time.Time       `json:"timestamp"`
		Type      PlayerEventType `json:"type"`
		SessionID string          `json:"session_id"`
		FlowID    FlowID          `json:"flow_id"`
		URL       string          `json:"url,omitempty"`
		Reason    string          `json:"reason,omitempty"`
		Index     int             `json:"index"`
	}
)

const (
	EventSessionStarted  PlayerEventType = "session_started"
	EventStepAdvanced    PlayerEventType = "step_advanced"
	EventFlowRedirected  PlayerEventType = "flow_redirected"
	EventMessageRejected PlayerEventType = "message_rejected"
	EventSessionEnded    PlayerEventType = "session_ended"
)
