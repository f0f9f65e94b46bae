package models

import (
	"encoding/json"
	"time"
)

// EventType tags every frame exchanged over the client connection.
type EventType string

// Inbound event kinds.
const (
	EventJoinText   EventType = "join-text-queue"
	EventSend       EventType = "send-message"
	EventNext       EventType = "next"
	EventReport     EventType = "report"
	EventStartVideo EventType = "start-video-queue"
	EventSignal     EventType = "relay-signal"
)

// Outbound event kinds. EventSignal is used in both directions.
const (
	EventConnected           EventType = "connected"
	EventWaiting             EventType = "waiting"
	EventPaired              EventType = "paired"
	EventVideoWaiting        EventType = "video-waiting"
	EventVideoPaired         EventType = "video-paired"
	EventMessage             EventType = "message"
	EventMessageSent         EventType = "message-sent"
	EventPartnerDisconnected EventType = "partner-disconnected"
	EventReportSubmitted     EventType = "report-submitted"
	EventError               EventType = "error"
)

// InboundEvent is a frame read from a client. Data is decoded per Type.
type InboundEvent struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// OutboundEvent is a frame written to a client.
type OutboundEvent struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// SendMessageData is the body of send-message.
type SendMessageData struct {
	Content string `json:"content"`
}

// NextData is the body of next. A nil VideoMode falls back to the room's flag.
type NextData struct {
	VideoMode *bool `json:"videoMode,omitempty"`
}

// ReportData is the body of report.
type ReportData struct {
	Reason string `json:"reason,omitempty"`
}

// SignalData is the body of relay-signal in both directions.
type SignalData struct {
	Signal Signal `json:"signal"`
}

// SignalKind is the closed set of peer negotiation message kinds.
type SignalKind string

const (
	SignalOffer       SignalKind = "offer"
	SignalAnswer      SignalKind = "answer"
	SignalCandidate   SignalKind = "candidate"
	SignalMediaToggle SignalKind = "media-toggle"
)

// Valid reports whether k belongs to the closed set.
func (k SignalKind) Valid() bool {
	switch k {
	case SignalOffer, SignalAnswer, SignalCandidate, SignalMediaToggle:
		return true
	}
	return false
}

// Signal is relayed verbatim between the two sides of a video room.
// Only Type is read (for audit) and To is stamped (for routing); Data is opaque.
type Signal struct {
	Type SignalKind      `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	From string          `json:"from,omitempty"`
	To   string          `json:"to,omitempty"`
}

// ChatMessage is a relayed text message.
type ChatMessage struct {
	ID       string    `json:"id"`
	RoomID   string    `json:"roomId"`
	SenderID string    `json:"senderId"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sentAt"`
}

// Outbound payloads.
type (
	ConnectedData struct {
		ConnectionID string `json:"connectionId"`
	}
	NoticeData struct {
		Message string `json:"message"`
	}
	PairedData struct {
		RoomID string `json:"roomId"`
	}
	VideoPairedData struct {
		RoomID      string `json:"roomId"`
		IsInitiator bool   `json:"isInitiator"`
	}
	MessageData struct {
		Payload ChatMessage `json:"payload"`
	}
)
