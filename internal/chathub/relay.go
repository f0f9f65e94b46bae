package chathub

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"strangerchat/backend/internal/logger"
	"strangerchat/backend/internal/metrics"
	"strangerchat/backend/internal/models"

	"go.uber.org/zap"
)

// ConnState is the per-connection session state derived from the stores.
type ConnState string

const (
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateWaiting      ConnState = "waiting"
	StatePaired       ConnState = "paired"
	StateVideoWaiting ConnState = "video_waiting"
	StateVideoPaired  ConnState = "video_paired"
	StateDisconnected ConnState = "disconnected"
)

// Texts renders localized notices.
type Texts interface {
	GetString(lang, key string) string
}

// RelayConfig holds the relay's tunables.
type RelayConfig struct {
	MaxMessageLength int
	MaxReportLength  int
	RematchDelay     time.Duration
}

type pendingRematch struct {
	gen   uint64
	avoid *models.Pair
	at    time.Time
}

// Relay interprets inbound events against the registry, queues and rooms and
// returns the resulting effects. It performs no I/O and must be driven from a
// single goroutine.
type Relay struct {
	Registry *Registry
	Queues   *QueueStore
	Rooms    *RoomStore
	Matcher  *MatcherService

	texts      Texts
	cfg        RelayConfig
	greeted    map[string]bool
	pending    map[models.QueueKind][]pendingRematch
	generation uint64
	now        func() time.Time
}

// NewRelay builds a relay and its stores around registry.
func NewRelay(registry *Registry, texts Texts, cfg RelayConfig) *Relay {
	queues := NewQueueStore()
	rooms := NewRoomStore(queues)
	return &Relay{
		Registry: registry,
		Queues:   queues,
		Rooms:    rooms,
		Matcher:  NewMatcherService(queues, rooms, registry),
		texts:    texts,
		cfg:      cfg,
		greeted:  make(map[string]bool),
		pending:  make(map[models.QueueKind][]pendingRematch),
		now:      time.Now,
	}
}

// Connect greets a registered connection with its identifier.
func (r *Relay) Connect(id string) []Effect {
	if _, ok := r.Registry.Find(id); !ok {
		return nil
	}
	r.greeted[id] = true
	out := &Outbox{}
	out.Send(id, models.EventConnected, models.ConnectedData{ConnectionID: id})
	return out.Effects()
}

// Handle декодує сирий кадр від id і застосовує його.
func (r *Relay) Handle(id string, raw []byte) []Effect {
	if _, ok := r.Registry.Find(id); !ok {
		return nil
	}
	// Будь-який кадр, навіть зіпсований, підтверджує живість з'єднання.
	r.Registry.MarkAlive(id)

	var ev models.InboundEvent
	err := json.Unmarshal(raw, &ev)
	if err == nil && ev.Type == "" {
		err = errors.New("missing type")
	}
	if err != nil {
		out := &Outbox{}
		r.fail(out, id, fmt.Errorf("%w: %v", ErrMalformedEvent, err))
		return out.Effects()
	}
	return r.HandleEvent(id, ev)
}

// HandleEvent застосовує декодовану подію від id. Події невідомих
// з'єднань ігноруються.
func (r *Relay) HandleEvent(id string, ev models.InboundEvent) []Effect {
	if _, ok := r.Registry.Find(id); !ok {
		return nil
	}
	r.Registry.MarkAlive(id)

	out := &Outbox{}
	var err error
	switch ev.Type {
	case models.EventJoinText:
		r.join(out, id, models.QueueText)
	case models.EventStartVideo:
		r.join(out, id, models.QueueVideo)
	case models.EventSend:
		var d models.SendMessageData
		if err = decode(ev.Data, &d, true); err == nil {
			err = r.sendMessage(out, id, d)
		}
	case models.EventNext:
		var d models.NextData
		if err = decode(ev.Data, &d, false); err == nil {
			r.next(out, id, d)
		}
	case models.EventReport:
		var d models.ReportData
		if err = decode(ev.Data, &d, false); err == nil {
			err = r.report(out, id, d)
		}
	case models.EventSignal:
		var d models.SignalData
		if err = decode(ev.Data, &d, true); err == nil {
			err = r.signal(out, id, d)
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	if err != nil {
		r.fail(out, id, err)
	} else {
		metrics.EventsTotal.WithLabelValues(string(ev.Type)).Inc()
	}
	return out.Effects()
}

// Disconnect прибирає id з реєстру та всіх сховищ. Співрозмовника
// сповіщають і повертають у чергу кімнати до відкладеного пошуку.
func (r *Relay) Disconnect(id string) []Effect {
	conn, known := r.Registry.Unregister(id)
	room, inRoom := r.Rooms.RemoveParticipant(id)
	delete(r.greeted, id)
	if !known && !inRoom {
		return nil
	}

	out := &Outbox{}
	partner := ""
	if inRoom {
		partner = room.Partner(id)
	}
	out.Audit(newRecord(conn.Meta, id, partner, models.ActionDisconnect, "", r.now()))

	if inRoom && r.reachable(partner) {
		kind := room.Kind()
		out.Send(partner, models.EventPartnerDisconnected, r.notice(partner, "partner_disconnected"))
		r.enqueue(partner, kind)
		r.scheduleRematch(out, kind, nil)
		logger.Info("room closed by disconnect",
			zap.String("room", room.RoomID),
			zap.String("conn", id),
			zap.String("partner", partner))
	}
	return out.Effects()
}

// Rematch виконує відкладений пошук пари для kind. Кожен таймер зберігає свою
// пару для уникнення; пропускається лише таймер, витіснений новішим з тією ж парою.
func (r *Relay) Rematch(kind models.QueueKind, gen uint64) []Effect {
	pending := r.pending[kind]
	idx := -1
	for i, p := range pending {
		if p.gen == gen {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	avoid := r.avoidSet(kind)
	r.pending[kind] = append(pending[:idx:idx], pending[idx+1:]...)
	if len(r.pending[kind]) == 0 {
		delete(r.pending, kind)
	}

	out := &Outbox{}
	r.drain(out, kind, avoid)
	return out.Effects()
}

// StateOf derives the session state of id.
func (r *Relay) StateOf(id string) ConnState {
	if _, ok := r.Registry.Find(id); !ok {
		return StateDisconnected
	}
	if room, ok := r.Rooms.ByParticipant(id); ok {
		if room.IsVideo {
			return StateVideoPaired
		}
		return StatePaired
	}
	if kind, ok := r.Queues.Find(id); ok {
		if kind == models.QueueVideo {
			return StateVideoWaiting
		}
		return StateWaiting
	}
	if !r.greeted[id] {
		return StateConnecting
	}
	return StateConnected
}

// PendingRematch повертає покоління найновішого запланованого пошуку для kind.
func (r *Relay) PendingRematch(kind models.QueueKind) (uint64, bool) {
	pending := r.pending[kind]
	if len(pending) == 0 {
		return 0, false
	}
	return pending[len(pending)-1].gen, true
}

func (r *Relay) join(out *Outbox, id string, kind models.QueueKind) {
	if room, ok := r.Rooms.ByParticipant(id); ok {
		r.abandon(out, id, room)
	}
	r.enqueue(id, kind)
	out.Audit(r.record(id, "", models.ActionJoin, "queue="+string(kind)))

	// Свіжий відкладений пошук сам підбере новачка; прострочене очікування не тримає чергу.
	if !r.holding(kind) {
		r.drain(out, kind, r.avoidSet(kind))
	}
	if _, paired := r.Rooms.ByParticipant(id); !paired {
		r.sendWaiting(out, id, kind)
	}
}

// abandon закриває кімнату, яку id покидає заради іншої черги. Для
// співрозмовника це те саме, що від'єднання id.
func (r *Relay) abandon(out *Outbox, id string, room *models.ChatRoom) {
	partner := room.Partner(id)
	r.Rooms.Remove(room.RoomID)
	out.Audit(r.record(id, partner, models.ActionNext, "left room "+room.RoomID))
	if !r.reachable(partner) {
		return
	}
	kind := room.Kind()
	out.Send(partner, models.EventPartnerDisconnected, r.notice(partner, "partner_disconnected"))
	r.enqueue(partner, kind)
	r.scheduleRematch(out, kind, &models.Pair{A: id, B: partner})
}

func (r *Relay) sendMessage(out *Outbox, id string, d models.SendMessageData) error {
	room, ok := r.Rooms.ByParticipant(id)
	if !ok {
		return ErrNotInRoom
	}
	if strings.TrimSpace(d.Content) == "" {
		return ErrEmptyMessage
	}
	partner := room.Partner(id)
	if !r.reachable(partner) {
		r.softDisconnect(out, id, room)
		return nil
	}

	content := truncate(d.Content, r.cfg.MaxMessageLength)
	msg := models.ChatMessage{
		ID:       newID(),
		RoomID:   room.RoomID,
		SenderID: id,
		Content:  content,
		SentAt:   r.now(),
	}
	out.Send(partner, models.EventMessage, models.MessageData{Payload: msg})
	out.Send(id, models.EventMessageSent, models.MessageData{Payload: msg})
	out.Audit(r.record(id, partner, models.ActionMessage, fmt.Sprintf("chars=%d", utf8.RuneCountInString(content))))
	return nil
}

func (r *Relay) next(out *Outbox, id string, d models.NextData) {
	room, ok := r.Rooms.ByParticipant(id)
	if !ok {
		if kind, queued := r.Queues.Find(id); queued {
			r.sendWaiting(out, id, kind)
			return
		}
		kind := models.QueueText
		if d.VideoMode != nil {
			kind = models.KindFor(*d.VideoMode)
		}
		r.join(out, id, kind)
		return
	}

	kind := room.Kind()
	if d.VideoMode != nil {
		kind = models.KindFor(*d.VideoMode)
	}
	out.Audit(r.record(id, room.Partner(id), models.ActionNext, "queue="+string(kind)))
	r.split(out, room, kind)
}

func (r *Relay) report(out *Outbox, id string, d models.ReportData) error {
	room, ok := r.Rooms.ByParticipant(id)
	if !ok {
		return ErrNotInRoom
	}
	reason := truncate(strings.TrimSpace(d.Reason), r.cfg.MaxReportLength)
	out.Audit(r.record(id, room.Partner(id), models.ActionReport, reason))
	out.Send(id, models.EventReportSubmitted, r.notice(id, "report_submitted"))
	r.split(out, room, room.Kind())
	return nil
}

func (r *Relay) signal(out *Outbox, id string, d models.SignalData) error {
	if !d.Signal.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSignalKind, d.Signal.Type)
	}
	room, ok := r.Rooms.ByParticipant(id)
	if !ok {
		return ErrNotInRoom
	}
	if !room.IsVideo {
		return ErrNotVideoRoom
	}
	partner := room.Partner(id)
	if !r.reachable(partner) {
		r.softDisconnect(out, id, room)
		return nil
	}

	sig := d.Signal
	sig.From = id
	sig.To = partner
	out.Send(partner, models.EventSignal, models.SignalData{Signal: sig})
	r.Rooms.RecordSignal(room.RoomID, id, sig.Type)
	out.Audit(r.record(id, partner, models.ActionSignal, string(sig.Type)))
	return nil
}

// split розбирає кімнату і повертає обох учасників у чергу kind, щоб їх
// не з'єднали одразу знову.
func (r *Relay) split(out *Outbox, room *models.ChatRoom, kind models.QueueKind) {
	r.Rooms.Remove(room.RoomID)
	for _, pid := range []string{room.User1ID, room.User2ID} {
		if !r.reachable(pid) {
			r.Queues.RemoveAll(pid)
			continue
		}
		r.enqueue(pid, kind)
		r.sendWaiting(out, pid, kind)
	}
	r.scheduleRematch(out, kind, &models.Pair{A: room.User1ID, B: room.User2ID})
	logger.Info("room split",
		zap.String("room", room.RoomID),
		zap.String("queue", string(kind)))
}

// softDisconnect обробляє співрозмовника, який зник без події від'єднання.
func (r *Relay) softDisconnect(out *Outbox, id string, room *models.ChatRoom) {
	partner := room.Partner(id)
	r.Rooms.Remove(room.RoomID)
	r.Queues.RemoveAll(partner)
	out.Audit(newRecord(models.ClientMeta{}, partner, id, models.ActionDisconnect, "partner unreachable", r.now()))

	kind := room.Kind()
	out.Send(id, models.EventPartnerDisconnected, r.notice(id, "partner_disconnected"))
	r.enqueue(id, kind)
	r.scheduleRematch(out, kind, nil)
	logger.Warn("partner unreachable, room closed",
		zap.String("room", room.RoomID),
		zap.String("conn", id),
		zap.String("partner", partner))
}

// scheduleRematch планує відкладений пошук. Очікуючий таймер з тією ж парою
// (або теж без пари) витісняється; решта спрацюють самі.
func (r *Relay) scheduleRematch(out *Outbox, kind models.QueueKind, avoid *models.Pair) {
	r.generation++
	p := pendingRematch{gen: r.generation, avoid: avoid, at: r.now()}

	kept := r.pending[kind][:0:0]
	for _, prev := range r.pending[kind] {
		if !prev.avoid.Equal(avoid) {
			kept = append(kept, prev)
		}
	}
	r.pending[kind] = append(kept, p)
	out.Schedule(kind, p.gen, r.cfg.RematchDelay)
}

// holding повідомляє, чи є для kind пошук, запланований менше ніж RematchDelay тому.
func (r *Relay) holding(kind models.QueueKind) bool {
	now := r.now()
	for _, p := range r.pending[kind] {
		if now.Sub(p.at) < r.cfg.RematchDelay {
			return true
		}
	}
	return false
}

// avoidSet збирає пари, розділені в межах ще не виконаних пошуків для kind.
func (r *Relay) avoidSet(kind models.QueueKind) []models.Pair {
	var avoid []models.Pair
	for _, p := range r.pending[kind] {
		if p.avoid != nil {
			avoid = append(avoid, *p.avoid)
		}
	}
	return avoid
}

func (r *Relay) drain(out *Outbox, kind models.QueueKind, avoid []models.Pair) {
	for r.Matcher.AttemptMatch(kind, avoid, out) != nil {
	}
}

func (r *Relay) enqueue(id string, kind models.QueueKind) {
	entry := models.WaitingEntry{ConnectionID: id, EnqueuedAt: r.now()}
	if c, ok := r.Registry.Find(id); ok {
		entry.Meta = c.Meta
	}
	r.Queues.Enqueue(kind, entry)
}

func (r *Relay) sendWaiting(out *Outbox, id string, kind models.QueueKind) {
	if kind == models.QueueVideo {
		out.Send(id, models.EventVideoWaiting, r.notice(id, "video_waiting"))
		return
	}
	out.Send(id, models.EventWaiting, r.notice(id, "waiting"))
}

func (r *Relay) fail(out *Outbox, id string, err error) {
	key := "error_malformed"
	switch {
	case errors.Is(err, ErrUnknownEvent):
		key = "error_unknown_event"
	case errors.Is(err, ErrUnknownSignalKind):
		key = "error_unknown_signal"
	case errors.Is(err, ErrNotInRoom):
		key = "error_not_in_room"
	case errors.Is(err, ErrNotVideoRoom):
		key = "error_not_video_room"
	case errors.Is(err, ErrEmptyMessage):
		key = "error_empty_message"
	}
	logger.Warn("event rejected", zap.String("conn", id), zap.Error(err))
	out.Send(id, models.EventError, r.notice(id, key))
}

func (r *Relay) notice(id, key string) models.NoticeData {
	lang := ""
	if c, ok := r.Registry.Find(id); ok {
		lang = c.Meta.Lang
	}
	return models.NoticeData{Message: r.texts.GetString(lang, key)}
}

func (r *Relay) reachable(id string) bool {
	_, ok := r.Registry.Find(id)
	return ok
}

func (r *Relay) record(id, partner string, action models.AuditAction, detail string) models.AuditRecord {
	var meta models.ClientMeta
	if c, ok := r.Registry.Find(id); ok {
		meta = c.Meta
	}
	return newRecord(meta, id, partner, action, detail, r.now())
}

func newRecord(meta models.ClientMeta, id, partner string, action models.AuditAction, detail string, at time.Time) models.AuditRecord {
	return models.AuditRecord{
		ID:           newID(),
		ConnectionID: id,
		PartnerID:    partner,
		Action:       action,
		Detail:       detail,
		ClientAddr:   meta.Addr,
		ClientAgent:  meta.Summary(),
		CreatedAt:    at,
	}
}

func decode(data json.RawMessage, v any, required bool) error {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		if required {
			return fmt.Errorf("%w: missing data", ErrMalformedEvent)
		}
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}

// truncate caps s at n runes.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
