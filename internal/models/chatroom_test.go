package models_test

import (
	"testing"

	"strangerchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestChatRoom_Partner(t *testing.T) {
	room := &models.ChatRoom{RoomID: "r", User1ID: "a", User2ID: "b"}

	assert.Equal(t, "b", room.Partner("a"))
	assert.Equal(t, "a", room.Partner("b"))
	assert.Empty(t, room.Partner("c"))
	assert.True(t, room.Has("a"))
	assert.False(t, room.Has(""))
	assert.Equal(t, models.QueueText, room.Kind())
}

func TestChatRoom_Initiator(t *testing.T) {
	text := &models.ChatRoom{User1ID: "a", User2ID: "b"}
	video := &models.ChatRoom{User1ID: "a", User2ID: "b", IsVideo: true}

	assert.False(t, text.IsInitiator("a"))
	assert.True(t, video.IsInitiator("a"))
	assert.False(t, video.IsInitiator("b"))
	assert.Equal(t, models.QueueVideo, video.Kind())
}

func TestPair_Contains(t *testing.T) {
	var none *models.Pair
	p := &models.Pair{A: "a", B: "b"}

	assert.True(t, p.Contains("a"))
	assert.True(t, p.Contains("b"))
	assert.False(t, p.Contains("c"))
	assert.False(t, none.Contains("a"))
}

func TestPair_Equal(t *testing.T) {
	p := &models.Pair{A: "a", B: "b"}
	var none *models.Pair

	assert.True(t, p.Equal(&models.Pair{A: "b", B: "a"}))
	assert.False(t, p.Equal(&models.Pair{A: "a", B: "c"}))
	assert.False(t, p.Equal(none))
	assert.False(t, none.Equal(p))
	assert.True(t, none.Equal(nil))
}

func TestSignalKind_Valid(t *testing.T) {
	for _, k := range []models.SignalKind{models.SignalOffer, models.SignalAnswer, models.SignalCandidate, models.SignalMediaToggle} {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, models.SignalKind("bye").Valid())
	assert.False(t, models.SignalKind("").Valid())
}
