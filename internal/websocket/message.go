package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	// Both directions
	MessageTypeChatMessage MessageType = "CHAT_MESSAGE"
	MessageTypeChatAck     MessageType = "CHAT_MESSAGE_RESPONSE"

	// Server to Client
	MessageTypeError MessageType = "ERROR"
)

// AckText is the fixed confirmation carried by every acknowledgment event.
const AckText = "Thanks, your message was sent"

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client to Server payloads

type SubmitChatPayload struct {
	SenderID string `json:"senderId"`
	Body     string `json:"body"`
}

// Server to Client payloads

type ChatMessagePayload struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"createdAt"`
}

type AckPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
