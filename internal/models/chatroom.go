package models

import "time"

// QueueKind identifies a waiting line.
type QueueKind string

const (
	QueueText  QueueKind = "text"
	QueueVideo QueueKind = "video"
)

// QueueKinds lists every waiting line in a stable order.
var QueueKinds = []QueueKind{QueueText, QueueVideo}

// KindFor maps a room's video flag to the queue its participants return to.
func KindFor(video bool) QueueKind {
	if video {
		return QueueVideo
	}
	return QueueText
}

// ChatRoom represents a 1-on-1 session between two connections.
// A room always holds exactly two distinct participants; it is deleted rather
// than left half-open.
type ChatRoom struct {
	// RoomID is the unique identifier for the room (UUID).
	RoomID string `json:"roomId"`
	// User1ID is the participant drawn first by the matcher. In video rooms it is
	// the initiator of the peer media negotiation.
	User1ID string `json:"user1Id"`
	// User2ID is the second participant.
	User2ID string `json:"user2Id"`
	// IsVideo marks rooms created from the video queue.
	IsVideo bool `json:"isVideo"`
	// StartedAt is the timestamp when the room was created.
	StartedAt time.Time `json:"startedAt"`
}

// Kind reports the queue the room was drawn from.
func (r *ChatRoom) Kind() QueueKind { return KindFor(r.IsVideo) }

// Partner returns the other participant, or "" when id is not in the room.
func (r *ChatRoom) Partner(id string) string {
	switch id {
	case r.User1ID:
		return r.User2ID
	case r.User2ID:
		return r.User1ID
	}
	return ""
}

// Has reports whether id participates in the room.
func (r *ChatRoom) Has(id string) bool {
	return id != "" && (id == r.User1ID || id == r.User2ID)
}

// IsInitiator reports whether id begins the media handshake in this room.
func (r *ChatRoom) IsInitiator(id string) bool {
	return r.IsVideo && id == r.User1ID
}

// Pair is an unordered pair of connection ids, used as the matcher's avoidance set.
type Pair struct {
	A, B string
}

// Contains reports whether id is one of the pair.
func (p *Pair) Contains(id string) bool {
	if p == nil {
		return false
	}
	return id == p.A || id == p.B
}

// Equal reports whether p and o hold the same two ids in any order.
// Two nil pairs are equal.
func (p *Pair) Equal(o *Pair) bool {
	if p == nil || o == nil {
		return p == o
	}
	return (p.A == o.A && p.B == o.B) || (p.A == o.B && p.B == o.A)
}
