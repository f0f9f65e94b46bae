package chathub

import (
	"time"

	"strangerchat/backend/internal/models"
)

// Effect is an outbound side effect produced by a relay transition. The
// manager turns effects into socket writes, audit writes and timers.
type Effect interface {
	effect()
}

// Deliver writes Event to the connection To.
type Deliver struct {
	To    string
	Event models.OutboundEvent
}

// Audit appends Record to the audit trail.
type Audit struct {
	Record models.AuditRecord
}

// ScheduleRematch asks for Rematch(Kind, Generation) to run after Delay.
type ScheduleRematch struct {
	Kind       models.QueueKind
	Generation uint64
	Delay      time.Duration
}

func (Deliver) effect()         {}
func (Audit) effect()           {}
func (ScheduleRematch) effect() {}

// Outbox collects the effects of one transition in order.
type Outbox struct {
	effects []Effect
}

// Send queues an event for one connection.
func (o *Outbox) Send(to string, typ models.EventType, data any) {
	o.effects = append(o.effects, Deliver{To: to, Event: models.OutboundEvent{Type: typ, Data: data}})
}

// Audit queues an audit record.
func (o *Outbox) Audit(rec models.AuditRecord) {
	o.effects = append(o.effects, Audit{Record: rec})
}

// Schedule queues a delayed re-match.
func (o *Outbox) Schedule(kind models.QueueKind, gen uint64, delay time.Duration) {
	o.effects = append(o.effects, ScheduleRematch{Kind: kind, Generation: gen, Delay: delay})
}

// Effects returns everything queued so far.
func (o *Outbox) Effects() []Effect {
	return o.effects
}
