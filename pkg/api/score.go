package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

type (
	// ScoreMessage is a window message event relayed by the embedding page.
	// Origin is the browser-reported origin of the posting frame, and Data
	// is whatever that frame posted
	ScoreMessage struct {
		Origin string          `json:"origin"`
		Data   json.RawMessage `json:"data"`
	}

	// Score is the validated payload of a ScoreMessage
	Score struct {
		Type  string  `json:"type"`
		Value float64 `json:"score"`
	}

	// CommandType identifies what the embedding page should do next
	CommandType string

	// PlayerCommand instructs the embedding page to change what it shows
	PlayerCommand struct {
		Type  CommandType `json:"type"`
		URL   string      `json:"url,omitempty"`
		Text  string      `json:"text,omitempty"`
		Index int         `json:"index"`
	}
)

const (
	CommandEmbed       CommandType = "embed"
	CommandPlaceholder CommandType = "placeholder"
	CommandRedirect    CommandType = "redirect"
)

var (
	ErrInvalidMessage = errors.New("invalid score message")
	ErrMessageData    = errors.New("message data must be a JSON object")
	ErrMessageType    = errors.New("message type must be a non-empty string")
	ErrMessageScore   = errors.New("message score must be a number")
)

// ParseScoreMessage decodes a relayed message envelope. The payload is not
// inspected until Score is called
func ParseScoreMessage(raw []byte) (*ScoreMessage, error) {
	var msg ScoreMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return &msg, nil
}

// Score extracts and validates the type and score fields of the payload
func (m *ScoreMessage) Score() (*Score, error) {
	if len(m.Data) == 0 || !gjson.ValidBytes(m.Data) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, ErrMessageData)
	}
	data := gjson.ParseBytes(m.Data)
	if !data.IsObject() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, ErrMessageData)
	}

	typ := data.Get("type")
	if typ.Type != gjson.String || typ.Str == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, ErrMessageType)
	}

	score := data.Get("score")
	if score.Type != gjson.Number {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, ErrMessageScore)
	}

	return &Score{
		Type:  typ.Str,
		Value: score.Num,
	}, nil
}
