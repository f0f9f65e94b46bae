package chathub

import "errors"

// Protocol errors: the inbound frame could not be interpreted.
var (
	ErrMalformedEvent    = errors.New("malformed event")
	ErrUnknownEvent      = errors.New("unknown event type")
	ErrUnknownSignalKind = errors.New("unknown signal kind")
)

// Precondition errors: the frame was valid but the connection's state forbids it.
var (
	ErrNotInRoom       = errors.New("not in a room")
	ErrNotVideoRoom    = errors.New("not in a video room")
	ErrEmptyMessage    = errors.New("message content is empty")
	ErrAlreadyInRoom   = errors.New("participant already in a room")
	ErrSameParticipant = errors.New("room needs two distinct participants")
)
