package chathub

import (
	"time"

	"strangerchat/backend/internal/logger"
	"strangerchat/backend/internal/metrics"
	"strangerchat/backend/internal/models"

	"go.uber.org/zap"
)

// MatcherService відповідає за алгоритм пошуку співрозмовників.
type MatcherService struct {
	Queues   *QueueStore
	Rooms    *RoomStore
	Registry *Registry
	now      func() time.Time
}

// NewMatcherService створює новий Matcher поверх сховищ.
func NewMatcherService(queues *QueueStore, rooms *RoomStore, registry *Registry) *MatcherService {
	return &MatcherService{
		Queues:   queues,
		Rooms:    rooms,
		Registry: registry,
		now:      time.Now,
	}
}

// AttemptMatch з'єднує двох очікуючих з черги kind, якщо їх щонайменше двоє.
// avoid містить щойно розділені пари: поки чекає хтось інший, їх не
// з'єднують повторно. Обидві сторони отримують сповіщення, а в out
// потрапляють два записи аудиту.
func (m *MatcherService) AttemptMatch(kind models.QueueKind, avoid []models.Pair, out *Outbox) *models.ChatRoom {
	first, second, ok := pickPair(m.Queues.Snapshot(kind), avoid)
	if !ok {
		return nil
	}

	room, err := m.Rooms.Create(first.ConnectionID, second.ConnectionID, kind == models.QueueVideo)
	if err != nil {
		logger.Error("room creation failed",
			zap.String("queue", string(kind)),
			zap.String("a", first.ConnectionID),
			zap.String("b", second.ConnectionID),
			zap.Error(err))
		return nil
	}

	for _, id := range []string{room.User1ID, room.User2ID} {
		if room.IsVideo {
			out.Send(id, models.EventVideoPaired, models.VideoPairedData{
				RoomID:      room.RoomID,
				IsInitiator: room.IsInitiator(id),
			})
		} else {
			out.Send(id, models.EventPaired, models.PairedData{RoomID: room.RoomID})
		}
		out.Audit(m.record(id, room.Partner(id), "room="+room.RoomID+" queue="+string(kind)))
	}

	metrics.MatchesTotal.WithLabelValues(string(kind)).Inc()
	logger.Info("match found",
		zap.String("room", room.RoomID),
		zap.String("queue", string(kind)),
		zap.String("a", room.User1ID),
		zap.String("b", room.User2ID))
	return room
}

func (m *MatcherService) record(id, partner, detail string) models.AuditRecord {
	rec := models.AuditRecord{
		ID:           newID(),
		ConnectionID: id,
		PartnerID:    partner,
		Action:       models.ActionPaired,
		Detail:       detail,
		CreatedAt:    m.now(),
	}
	if c, ok := m.Registry.Find(id); ok {
		rec.ClientAddr = c.Meta.Addr
		rec.ClientAgent = c.Meta.Summary()
	}
	return rec
}

// pickPair обирає двох для з'єднання; перший результат - сторона, витягнута першою.
// Спершу двоє поза всіма парами з avoid, інакше єдиний сторонній з першим
// очікуючим із пар, а розділену пару повторюють лише коли більше нікого немає.
func pickPair(entries []models.WaitingEntry, avoid []models.Pair) (models.WaitingEntry, models.WaitingEntry, bool) {
	if len(entries) < 2 {
		return models.WaitingEntry{}, models.WaitingEntry{}, false
	}
	if len(avoid) == 0 || len(entries) == 2 {
		return entries[0], entries[1], true
	}

	var fresh, avoided []models.WaitingEntry
	for _, e := range entries {
		if inAnyPair(avoid, e.ConnectionID) {
			avoided = append(avoided, e)
		} else {
			fresh = append(fresh, e)
		}
	}

	switch {
	case len(fresh) >= 2:
		return fresh[0], fresh[1], true
	case len(fresh) == 1:
		return fresh[0], avoided[0], true
	}

	// Усі очікуючі з розділених пар: беремо першу комбінацію, що не повторює пару.
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if !isAvoidedPair(avoid, entries[i].ConnectionID, entries[j].ConnectionID) {
				return entries[i], entries[j], true
			}
		}
	}
	return entries[0], entries[1], true
}

func inAnyPair(avoid []models.Pair, id string) bool {
	for i := range avoid {
		if avoid[i].Contains(id) {
			return true
		}
	}
	return false
}

func isAvoidedPair(avoid []models.Pair, a, b string) bool {
	candidate := &models.Pair{A: a, B: b}
	for i := range avoid {
		if avoid[i].Equal(candidate) {
			return true
		}
	}
	return false
}
