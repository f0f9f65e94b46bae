package chathub_test

import (
	"testing"

	"strangerchat/backend/internal/chathub"
	"strangerchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomStore_CreateDequeuesBoth(t *testing.T) {
	q := chathub.NewQueueStore()
	rooms := chathub.NewRoomStore(q)
	q.Enqueue(models.QueueText, entry("a"))
	q.Enqueue(models.QueueVideo, entry("b"))

	room, err := rooms.Create("a", "b", false)
	require.NoError(t, err)

	assert.NotEmpty(t, room.RoomID)
	assert.Equal(t, "a", room.User1ID)
	assert.Equal(t, "b", room.User2ID)
	assert.Equal(t, 0, q.Len(models.QueueText))
	assert.Equal(t, 0, q.Len(models.QueueVideo))

	for _, id := range []string{"a", "b"} {
		got, ok := rooms.ByParticipant(id)
		require.True(t, ok)
		assert.Same(t, room, got)
	}
	assert.Equal(t, 1, rooms.Len())
}

func TestRoomStore_CreateRejects(t *testing.T) {
	rooms := chathub.NewRoomStore(chathub.NewQueueStore())

	_, err := rooms.Create("a", "a", false)
	assert.ErrorIs(t, err, chathub.ErrSameParticipant)

	_, err = rooms.Create("a", "b", false)
	require.NoError(t, err)

	_, err = rooms.Create("a", "c", false)
	assert.ErrorIs(t, err, chathub.ErrAlreadyInRoom)
	_, err = rooms.Create("c", "b", false)
	assert.ErrorIs(t, err, chathub.ErrAlreadyInRoom)
	assert.Equal(t, 1, rooms.Len())
}

func TestRoomStore_RemoveParticipantTearsDownRoom(t *testing.T) {
	q := chathub.NewQueueStore()
	rooms := chathub.NewRoomStore(q)
	room, err := rooms.Create("a", "b", true)
	require.NoError(t, err)

	got, ok := rooms.RemoveParticipant("a")
	require.True(t, ok)
	assert.Equal(t, room.RoomID, got.RoomID)

	_, ok = rooms.ByParticipant("b")
	assert.False(t, ok, "partner mapping removed with the room")
	_, ok = rooms.Get(room.RoomID)
	assert.False(t, ok)
	_, ok = rooms.Signals(room.RoomID)
	assert.False(t, ok)
}

func TestRoomStore_RemoveParticipantDequeues(t *testing.T) {
	q := chathub.NewQueueStore()
	rooms := chathub.NewRoomStore(q)
	q.Enqueue(models.QueueText, entry("a"))

	_, ok := rooms.RemoveParticipant("a")
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len(models.QueueText))
}

func TestRoomStore_SignalState(t *testing.T) {
	rooms := chathub.NewRoomStore(chathub.NewQueueStore())
	text, err := rooms.Create("a", "b", false)
	require.NoError(t, err)
	video, err := rooms.Create("c", "d", true)
	require.NoError(t, err)

	_, ok := rooms.Signals(text.RoomID)
	assert.False(t, ok, "text rooms carry no signaling state")

	rooms.RecordSignal(video.RoomID, "c", models.SignalOffer)
	rooms.RecordSignal(video.RoomID, "d", models.SignalAnswer)
	rooms.RecordSignal(video.RoomID, "c", models.SignalCandidate)

	st, ok := rooms.Signals(video.RoomID)
	require.True(t, ok)
	assert.Equal(t, 1, st.Counts[models.SignalOffer])
	assert.Equal(t, models.SignalCandidate, st.LastKind["c"])
	assert.Equal(t, models.SignalAnswer, st.LastKind["d"])

	rooms.Remove(video.RoomID)
	_, ok = rooms.Signals(video.RoomID)
	assert.False(t, ok)
}
