package chathub_test

import (
	"encoding/json"
	"testing"
	"time"

	"strangerchat/backend/internal/chathub"
	"strangerchat/backend/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAudit is a testify mock of chathub.AuditSubmitter.
type MockAudit struct {
	mock.Mock
}

func (m *MockAudit) Submit(rec models.AuditRecord) {
	m.Called(rec)
}

// keyTexts renders a notice as "lang:key" so tests can assert on the key.
type keyTexts struct{}

func (keyTexts) GetString(lang, key string) string {
	return lang + ":" + key
}

// testClock is a manually advanced clock for the relay.
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

const testRematchDelay = 10 * time.Millisecond

func newClockedRelay() (*chathub.Relay, *testClock) {
	r := chathub.NewRelay(chathub.NewRegistry(), keyTexts{}, chathub.RelayConfig{
		MaxMessageLength: 1000,
		MaxReportLength:  500,
		RematchDelay:     testRematchDelay,
	})
	clock := &testClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	r.SetClock(clock.Now)
	return r, clock
}

func newTestRelay() *chathub.Relay {
	r, _ := newClockedRelay()
	return r
}

// connect registers and greets a new connection.
func connect(r *chathub.Relay) string {
	id := r.Registry.Register(models.ClientMeta{Addr: "127.0.0.1", Lang: "en"})
	r.Connect(id)
	return id
}

// emit sends an inbound event with an optional data body.
func emit(t *testing.T, r *chathub.Relay, id string, typ models.EventType, data any) []chathub.Effect {
	t.Helper()
	ev := map[string]any{"type": typ}
	if data != nil {
		ev["data"] = data
	}
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return r.Handle(id, raw)
}

func deliveries(effects []chathub.Effect) []chathub.Deliver {
	var out []chathub.Deliver
	for _, e := range effects {
		if d, ok := e.(chathub.Deliver); ok {
			out = append(out, d)
		}
	}
	return out
}

// eventsFor lists the event types delivered to id, in order.
func eventsFor(effects []chathub.Effect, id string) []models.EventType {
	var out []models.EventType
	for _, d := range deliveries(effects) {
		if d.To == id {
			out = append(out, d.Event.Type)
		}
	}
	return out
}

// firstFor returns the first event of typ delivered to id.
func firstFor(t *testing.T, effects []chathub.Effect, id string, typ models.EventType) models.OutboundEvent {
	t.Helper()
	for _, d := range deliveries(effects) {
		if d.To == id && d.Event.Type == typ {
			return d.Event
		}
	}
	require.Failf(t, "event not delivered", "%s to %s", typ, id)
	return models.OutboundEvent{}
}

func audits(effects []chathub.Effect) []models.AuditRecord {
	var out []models.AuditRecord
	for _, e := range effects {
		if a, ok := e.(chathub.Audit); ok {
			out = append(out, a.Record)
		}
	}
	return out
}

func schedules(effects []chathub.Effect) []chathub.ScheduleRematch {
	var out []chathub.ScheduleRematch
	for _, e := range effects {
		if s, ok := e.(chathub.ScheduleRematch); ok {
			out = append(out, s)
		}
	}
	return out
}

// pairUp connects two clients and pairs them through the given queue.
func pairUp(t *testing.T, r *chathub.Relay, join models.EventType) (string, string, *models.ChatRoom) {
	t.Helper()
	a := connect(r)
	b := connect(r)
	emit(t, r, a, join, nil)
	emit(t, r, b, join, nil)
	room, ok := r.Rooms.ByParticipant(a)
	require.True(t, ok)
	return a, b, room
}
