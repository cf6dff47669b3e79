package models

import "time"

// Stream message types pushed to WebSocket clients
const (
	StreamTypeSignal  = "signal"
	StreamTypeMaxPain = "maxpain"
	StreamTypeOI      = "oi"
)

// StreamMessage is the envelope for derived-analytics updates pushed to
// WebSocket clients.
type StreamMessage struct {
	Type      string      `json:"type"`
	Symbol    string      `json:"symbol"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ClientCommand is a subscribe/unsubscribe request from a WebSocket client.
type ClientCommand struct {
	Action  string   `json:"action"` // "subscribe" or "unsubscribe"
	Symbols []string `json:"symbols"`
}
