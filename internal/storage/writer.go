package storage

import (
	"context"
	"time"

	"strangerchat/backend/internal/logger"
	"strangerchat/backend/internal/metrics"
	"strangerchat/backend/internal/models"

	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// AuditWriter moves audit records off the hub goroutine. Submit never blocks;
// records arriving while the buffer is full are dropped and counted.
type AuditWriter struct {
	store Storage
	queue chan models.AuditRecord
	done  chan struct{}
}

// NewAuditWriter creates a writer with room for buffer pending records.
func NewAuditWriter(store Storage, buffer int) *AuditWriter {
	return &AuditWriter{
		store: store,
		queue: make(chan models.AuditRecord, buffer),
		done:  make(chan struct{}),
	}
}

// Submit queues rec for writing.
func (w *AuditWriter) Submit(rec models.AuditRecord) {
	select {
	case w.queue <- rec:
	default:
		metrics.AuditDropped.Inc()
		logger.Warn("audit buffer full, record dropped",
			zap.String("action", string(rec.Action)),
			zap.String("conn", rec.ConnectionID))
	}
}

// Run writes queued records until ctx is cancelled, then flushes what is
// already buffered.
func (w *AuditWriter) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case rec := <-w.queue:
			w.write(rec)
		case <-ctx.Done():
			for {
				select {
				case rec := <-w.queue:
					w.write(rec)
				default:
					return
				}
			}
		}
	}
}

// Done is closed after Run has flushed and returned.
func (w *AuditWriter) Done() <-chan struct{} {
	return w.done
}

func (w *AuditWriter) write(rec models.AuditRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := w.store.SaveAuditRecord(ctx, &rec); err != nil {
		logger.Error("audit write failed",
			zap.String("action", string(rec.Action)),
			zap.String("conn", rec.ConnectionID),
			zap.Error(err))
	}
}
