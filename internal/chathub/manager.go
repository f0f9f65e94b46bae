package chathub

import (
	"context"
	"sync/atomic"
	"time"

	"strangerchat/backend/internal/logger"
	"strangerchat/backend/internal/metrics"
	"strangerchat/backend/internal/models"

	"go.uber.org/zap"
)

// AuditSubmitter приймає записи аудиту, не блокуючи викликача.
type AuditSubmitter interface {
	Submit(rec models.AuditRecord)
}

// Frame - одне сире вхідне повідомлення від з'єднання.
type Frame struct {
	ConnID string
	Data   []byte
}

// Stats - знімок стану сховищ, який можна читати з будь-якої горутини.
type Stats struct {
	Connections  int `json:"connections"`
	Rooms        int `json:"rooms"`
	TextWaiting  int `json:"textWaiting"`
	VideoWaiting int `json:"videoWaiting"`
}

// ManagerService - єдиний цикл подій, що володіє реле. Усі зміни сховищ
// відбуваються в горутині, яка виконує Run.
type ManagerService struct {
	Clients map[string]Client

	// Channels
	RegisterCh   chan Client
	UnregisterCh chan string
	IncomingCh   chan Frame

	Relay         *Relay
	Registry      *Registry
	Audit         AuditSubmitter
	SweepInterval time.Duration

	rematchCh chan ScheduleRematch
	done      chan struct{}
	stats     atomic.Pointer[Stats]
}

// NewManagerService створює хаб навколо relay.
func NewManagerService(relay *Relay, audit AuditSubmitter, sweepInterval time.Duration) *ManagerService {
	m := &ManagerService{
		Clients:       make(map[string]Client),
		RegisterCh:    make(chan Client),
		UnregisterCh:  make(chan string),
		IncomingCh:    make(chan Frame, 256),
		Relay:         relay,
		Registry:      relay.Registry,
		Audit:         audit,
		SweepInterval: sweepInterval,
		rematchCh:     make(chan ScheduleRematch, 16),
		done:          make(chan struct{}),
	}
	m.stats.Store(&Stats{})
	return m
}

// Run обробляє події хаба, доки ctx не скасовано.
func (m *ManagerService) Run(ctx context.Context) {
	logger.Info("chat hub started", zap.Duration("sweep_interval", m.SweepInterval))
	defer close(m.done)

	ticker := time.NewTicker(m.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return

		case c := <-m.RegisterCh:
			id := c.GetID()
			effects := m.Relay.Connect(id)
			if effects == nil {
				logger.Warn("register for unknown connection", zap.String("conn", id))
				c.Close()
				continue
			}
			m.Clients[id] = c
			m.apply(effects)

		case id := <-m.UnregisterCh:
			m.drop(id)
			m.apply(m.Relay.Disconnect(id))

		case f := <-m.IncomingCh:
			m.apply(m.Relay.Handle(f.ConnID, f.Data))

		case t := <-m.rematchCh:
			m.apply(m.Relay.Rematch(t.Kind, t.Generation))

		case <-ticker.C:
			m.sweep()
		}
	}
}

// Done закривається після виходу з Run.
func (m *ManagerService) Done() <-chan struct{} {
	return m.done
}

// Register передає нового клієнта в цикл. Повертає false, якщо хаб
// уже зупинено.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		return false
	}
}

// Unregister повідомляє циклу про закрите з'єднання.
func (m *ManagerService) Unregister(id string) {
	select {
	case m.UnregisterCh <- id:
	case <-m.done:
	}
}

// Incoming пересилає сирий кадр у цикл. Повертає false, якщо хаб
// уже зупинено.
func (m *ManagerService) Incoming(id string, data []byte) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.IncomingCh <- Frame{ConnID: id, Data: data}:
		return true
	case <-m.done:
		return false
	}
}

// Stats повертає останній знімок, опублікований циклом.
func (m *ManagerService) Stats() Stats {
	return *m.stats.Load()
}

func (m *ManagerService) apply(effects []Effect) {
	for _, e := range effects {
		switch e := e.(type) {
		case Deliver:
			m.deliver(e)
		case Audit:
			if m.Audit != nil {
				m.Audit.Submit(e.Record)
			}
		case ScheduleRematch:
			m.schedule(e)
		}
	}
	m.publishStats()
}

func (m *ManagerService) deliver(d Deliver) {
	c, ok := m.Clients[d.To]
	if !ok {
		logger.Debug("dropping event for detached connection",
			zap.String("conn", d.To),
			zap.String("type", string(d.Event.Type)))
		return
	}
	select {
	case c.GetSendChannel() <- d.Event:
	default:
		// Читач помітить закрите з'єднання і сам його відреєструє.
		logger.Warn("send buffer full, closing connection", zap.String("conn", d.To))
		m.drop(d.To)
	}
}

func (m *ManagerService) schedule(s ScheduleRematch) {
	time.AfterFunc(s.Delay, func() {
		select {
		case m.rematchCh <- s:
		case <-m.done:
		}
	})
}

// sweep прибирає з'єднання, що пропустили цілий інтервал живості, і пінгує
// решту.
func (m *ManagerService) sweep() {
	for _, id := range m.Registry.SweepDead() {
		logger.Info("liveness timeout", zap.String("conn", id))
		metrics.SweptTotal.Inc()
		m.drop(id)
		m.apply(m.Relay.Disconnect(id))
	}
	for _, c := range m.Clients {
		c.Ping()
	}
}

// drop від'єднує та закриває клієнта id, якщо він ще приєднаний.
func (m *ManagerService) drop(id string) {
	c, ok := m.Clients[id]
	if !ok {
		return
	}
	delete(m.Clients, id)
	c.Close()
}

func (m *ManagerService) shutdown() {
	logger.Info("chat hub stopping", zap.Int("clients", len(m.Clients)))
	for id := range m.Clients {
		m.drop(id)
	}
}

func (m *ManagerService) publishStats() {
	s := &Stats{
		Connections:  m.Registry.Len(),
		Rooms:        m.Relay.Rooms.Len(),
		TextWaiting:  m.Relay.Queues.Len(models.QueueText),
		VideoWaiting: m.Relay.Queues.Len(models.QueueVideo),
	}
	m.stats.Store(s)

	metrics.ConnectionsActive.Set(float64(s.Connections))
	metrics.RoomsActive.Set(float64(s.Rooms))
	metrics.QueueLength.WithLabelValues(string(models.QueueText)).Set(float64(s.TextWaiting))
	metrics.QueueLength.WithLabelValues(string(models.QueueVideo)).Set(float64(s.VideoWaiting))
}
