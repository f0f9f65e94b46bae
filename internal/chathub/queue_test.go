package chathub_test

import (
	"testing"

	"strangerchat/backend/internal/chathub"
	"strangerchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func entry(id string) models.WaitingEntry {
	return models.WaitingEntry{ConnectionID: id}
}

func ids(entries []models.WaitingEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ConnectionID)
	}
	return out
}

func TestQueueStore_FIFO(t *testing.T) {
	q := chathub.NewQueueStore()
	q.Enqueue(models.QueueText, entry("a"))
	q.Enqueue(models.QueueText, entry("b"))
	q.Enqueue(models.QueueText, entry("c"))

	assert.Equal(t, []string{"a", "b", "c"}, ids(q.Snapshot(models.QueueText)))
	assert.Equal(t, 3, q.Len(models.QueueText))
	assert.Equal(t, 0, q.Len(models.QueueVideo))
}

func TestQueueStore_ReEnqueueMovesToTail(t *testing.T) {
	q := chathub.NewQueueStore()
	q.Enqueue(models.QueueText, entry("a"))
	q.Enqueue(models.QueueText, entry("b"))
	q.Enqueue(models.QueueText, entry("a"))

	assert.Equal(t, []string{"b", "a"}, ids(q.Snapshot(models.QueueText)))
}

func TestQueueStore_SingleQueueMembership(t *testing.T) {
	q := chathub.NewQueueStore()
	q.Enqueue(models.QueueText, entry("a"))
	q.Enqueue(models.QueueVideo, entry("a"))

	assert.Equal(t, 0, q.Len(models.QueueText))
	assert.Equal(t, []string{"a"}, ids(q.Snapshot(models.QueueVideo)))

	kind, ok := q.Find("a")
	assert.True(t, ok)
	assert.Equal(t, models.QueueVideo, kind)
}

func TestQueueStore_Remove(t *testing.T) {
	q := chathub.NewQueueStore()
	q.Enqueue(models.QueueText, entry("a"))
	q.Enqueue(models.QueueText, entry("b"))
	q.Enqueue(models.QueueText, entry("c"))

	assert.True(t, q.Remove(models.QueueText, "b"))
	assert.False(t, q.Remove(models.QueueText, "b"))
	assert.False(t, q.Remove(models.QueueVideo, "a"))
	assert.Equal(t, []string{"a", "c"}, ids(q.Snapshot(models.QueueText)))

	q.RemoveAll("a")
	_, ok := q.Find("a")
	assert.False(t, ok)
}

func TestQueueStore_SnapshotIsCopy(t *testing.T) {
	q := chathub.NewQueueStore()
	q.Enqueue(models.QueueText, entry("a"))

	snap := q.Snapshot(models.QueueText)
	snap[0].ConnectionID = "mutated"

	assert.Equal(t, []string{"a"}, ids(q.Snapshot(models.QueueText)))
}
