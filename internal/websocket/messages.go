package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies a WebSocket message.
type MessageType string

const (
	// MessageTypeAlert carries the alert view model, visible or cleared.
	MessageTypeAlert MessageType = "alert"

	// MessageTypeAudioCue asks screens to start or stop a clip.
	MessageTypeAudioCue MessageType = "audioCue"

	// MessageTypeLeaderboard carries a fresh ranking snapshot.
	MessageTypeLeaderboard MessageType = "leaderboard"

	// MessageTypeAlertComplete is sent by a screen when its alert view finished.
	MessageTypeAlertComplete MessageType = "alertComplete"

	// MessageTypeReady is sent by a screen once audio playback is unlocked.
	MessageTypeReady MessageType = "ready"
)

// Envelope wraps every outbound message.
type Envelope struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data,omitempty"`
}

// AudioCue instructs screens to play or stop a clip.
type AudioCue struct {
	Action string  `json:"action"`
	Cue    string  `json:"cue,omitempty"`
	URL    string  `json:"url,omitempty"`
	Volume float64 `json:"volume,omitempty"`
	Loop   bool    `json:"loop,omitempty"`
}

// AlertCompletion is the payload of alertComplete; it names the presentation that ended.
type AlertCompletion struct {
	PresentationID uint64 `json:"presentationId"`
}

// Inbound is a message received from a screen.
type Inbound struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}
