package chathub_test

import (
	"testing"

	"strangerchat/backend/internal/chathub"
	"strangerchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterIssuesDistinctIDs(t *testing.T) {
	r := chathub.NewRegistry()

	a := r.Register(models.ClientMeta{Addr: "10.0.0.1"})
	b := r.Register(models.ClientMeta{Addr: "10.0.0.2"})

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Len())

	c, ok := r.Find(a)
	require.True(t, ok)
	assert.True(t, c.Alive)
	assert.Equal(t, "10.0.0.1", c.Meta.Addr)
}

func TestRegistry_Unregister(t *testing.T) {
	r := chathub.NewRegistry()
	id := r.Register(models.ClientMeta{})

	c, ok := r.Unregister(id)
	assert.True(t, ok)
	assert.Equal(t, id, c.ID)

	_, ok = r.Unregister(id)
	assert.False(t, ok, "second unregister is a no-op")
	_, ok = r.Find(id)
	assert.False(t, ok)
}

func TestRegistry_SweepDead(t *testing.T) {
	r := chathub.NewRegistry()
	quiet := r.Register(models.ClientMeta{})
	chatty := r.Register(models.ClientMeta{})

	// Everyone starts alive, so the first sweep only clears flags.
	assert.Empty(t, r.SweepDead())

	r.MarkAlive(chatty)
	dead := r.SweepDead()
	assert.Equal(t, []string{quiet}, dead)

	// Dead entries stay until the caller disconnects them.
	_, ok := r.Find(quiet)
	assert.True(t, ok)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_MarkAliveUnknownIsNoop(t *testing.T) {
	r := chathub.NewRegistry()
	r.MarkAlive("missing")
	assert.Equal(t, 0, r.Len())
}
