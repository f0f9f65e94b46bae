package chathub

import (
	"time"

	"strangerchat/backend/internal/models"

	"github.com/google/uuid"
)

// SignalState is the per-room signaling bookkeeping for video sessions.
// It exists only while the room does.
type SignalState struct {
	Counts   map[models.SignalKind]int
	LastKind map[string]models.SignalKind
}

// RoomStore holds active rooms and the participant to room mapping.
// It shares the QueueStore so that creation and teardown keep both consistent.
type RoomStore struct {
	rooms   map[string]*models.ChatRoom
	byConn  map[string]string
	signals map[string]*SignalState
	queues  *QueueStore
	now     func() time.Time
}

// NewRoomStore creates an empty store bound to queues.
func NewRoomStore(queues *QueueStore) *RoomStore {
	return &RoomStore{
		rooms:   make(map[string]*models.ChatRoom),
		byConn:  make(map[string]string),
		signals: make(map[string]*SignalState),
		queues:  queues,
		now:     time.Now,
	}
}

// Create binds a and b into a new room. Both are removed from every queue and
// mapped to the room in the same step. a is recorded first and is the
// initiator of video rooms.
func (s *RoomStore) Create(a, b string, isVideo bool) (*models.ChatRoom, error) {
	if a == "" || b == "" || a == b {
		return nil, ErrSameParticipant
	}
	if _, ok := s.byConn[a]; ok {
		return nil, ErrAlreadyInRoom
	}
	if _, ok := s.byConn[b]; ok {
		return nil, ErrAlreadyInRoom
	}

	room := &models.ChatRoom{
		RoomID:    uuid.New().String(),
		User1ID:   a,
		User2ID:   b,
		IsVideo:   isVideo,
		StartedAt: s.now(),
	}
	s.queues.RemoveAll(a)
	s.queues.RemoveAll(b)
	s.rooms[room.RoomID] = room
	s.byConn[a] = room.RoomID
	s.byConn[b] = room.RoomID
	if isVideo {
		s.signals[room.RoomID] = &SignalState{
			Counts:   make(map[models.SignalKind]int),
			LastKind: make(map[string]models.SignalKind),
		}
	}
	return room, nil
}

// ByParticipant returns the room id currently belongs to.
func (s *RoomStore) ByParticipant(id string) (*models.ChatRoom, bool) {
	roomID, ok := s.byConn[id]
	if !ok {
		return nil, false
	}
	room, ok := s.rooms[roomID]
	return room, ok
}

// Get returns a room by id.
func (s *RoomStore) Get(roomID string) (*models.ChatRoom, bool) {
	room, ok := s.rooms[roomID]
	return room, ok
}

// Remove deletes the room, both participant mappings and its signaling state.
func (s *RoomStore) Remove(roomID string) (*models.ChatRoom, bool) {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}
	delete(s.rooms, roomID)
	delete(s.signals, roomID)
	if s.byConn[room.User1ID] == roomID {
		delete(s.byConn, room.User1ID)
	}
	if s.byConn[room.User2ID] == roomID {
		delete(s.byConn, room.User2ID)
	}
	return room, true
}

// RemoveParticipant tears down the whole room owning id, if any, and drops id
// from both queues regardless.
func (s *RoomStore) RemoveParticipant(id string) (*models.ChatRoom, bool) {
	var (
		room *models.ChatRoom
		ok   bool
	)
	if roomID, found := s.byConn[id]; found {
		room, ok = s.Remove(roomID)
		if !ok {
			delete(s.byConn, id)
		}
	}
	s.queues.RemoveAll(id)
	return room, ok
}

// RecordSignal updates the signaling bookkeeping of a video room.
func (s *RoomStore) RecordSignal(roomID, from string, kind models.SignalKind) {
	st, ok := s.signals[roomID]
	if !ok {
		return
	}
	st.Counts[kind]++
	st.LastKind[from] = kind
}

// Signals returns the signaling state of a video room.
func (s *RoomStore) Signals(roomID string) (*SignalState, bool) {
	st, ok := s.signals[roomID]
	return st, ok
}

// Len returns the number of active rooms.
func (s *RoomStore) Len() int {
	return len(s.rooms)
}
