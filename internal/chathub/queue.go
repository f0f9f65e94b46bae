package chathub

import (
	"strangerchat/backend/internal/models"
)

// QueueStore holds the insertion-ordered waiting lines. A connection id lives
// in at most one line at a time.
type QueueStore struct {
	queues map[models.QueueKind][]models.WaitingEntry
}

// NewQueueStore creates empty text and video queues.
func NewQueueStore() *QueueStore {
	q := &QueueStore{queues: make(map[models.QueueKind][]models.WaitingEntry)}
	for _, kind := range models.QueueKinds {
		q.queues[kind] = nil
	}
	return q
}

// Enqueue appends entry to the tail of kind. Any earlier entry for the same id,
// in either queue, is dropped first, so re-enqueueing never duplicates.
func (q *QueueStore) Enqueue(kind models.QueueKind, entry models.WaitingEntry) {
	q.RemoveAll(entry.ConnectionID)
	q.queues[kind] = append(q.queues[kind], entry)
}

// Snapshot returns the current contents of kind, oldest first.
func (q *QueueStore) Snapshot(kind models.QueueKind) []models.WaitingEntry {
	src := q.queues[kind]
	out := make([]models.WaitingEntry, len(src))
	copy(out, src)
	return out
}

// Remove drops id from kind and reports whether it was there.
func (q *QueueStore) Remove(kind models.QueueKind, id string) bool {
	entries := q.queues[kind]
	for i, e := range entries {
		if e.ConnectionID == id {
			q.queues[kind] = append(entries[:i:i], entries[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAll drops id from every queue.
func (q *QueueStore) RemoveAll(id string) {
	for _, kind := range models.QueueKinds {
		q.Remove(kind, id)
	}
}

// Find reports which queue holds id.
func (q *QueueStore) Find(id string) (models.QueueKind, bool) {
	for _, kind := range models.QueueKinds {
		for _, e := range q.queues[kind] {
			if e.ConnectionID == id {
				return kind, true
			}
		}
	}
	return "", false
}

// Len returns the number of entries waiting in kind.
func (q *QueueStore) Len(kind models.QueueKind) int {
	return len(q.queues[kind])
}
