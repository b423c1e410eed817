package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies relay payload variants.
type MessageType string

const (
	TypeChatMessage MessageType = "chat_message"
	TypeSeed        MessageType = "seed"
	TypeSystemEvent MessageType = "system_event"
	TypeErrorEvent  MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ChatMessage is a line of chat sent by a peer.
type ChatMessage struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
	From string      `json:"from,omitempty"`
	TSMs int64       `json:"ts_ms,omitempty"`
}

// Seed carries the trailing word of another peer's message.
type Seed struct {
	Type MessageType `json:"type"`
	Word string      `json:"word"`
	From string      `json:"from,omitempty"`
}

type SystemEvent struct {
	Type   MessageType `json:"type"`
	PeerID string      `json:"peer_id,omitempty"`
	Code   string      `json:"code"`
	Detail string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage decodes a message sent by a relay peer.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeChatMessage:
		var msg ChatMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// ParseServerMessage decodes a message sent by the relay.
func ParseServerMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeSeed:
		var msg Seed
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeSystemEvent:
		var msg SystemEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeErrorEvent:
		var msg ErrorEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// TypeOf returns the MessageType of a known payload.
func TypeOf(v any) (MessageType, bool) {
	switch m := v.(type) {
	case ChatMessage:
		return m.Type, true
	case Seed:
		return m.Type, true
	case SystemEvent:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
