// Package audit persists the API key usage trail off the request path.
// Records are queued on a buffered channel and written by a single worker,
// so a slow or failing store never adds latency to a response. When the
// queue is full the record is dropped with a warning: the audit trail is
// best effort by design.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mandatohub/mandato/internal/model"
)

// Store is the persistence interface the recorder needs.
type Store interface {
	InsertUsageLog(ctx context.Context, rec *model.UsageRecord) error
}

// Recorder is the asynchronous usage-log writer.
type Recorder struct {
	store  Store
	logger *slog.Logger

	ch   chan model.UsageRecord
	wg   sync.WaitGroup
	once sync.Once
}

// NewRecorder starts a recorder with the given queue capacity.
func NewRecorder(st Store, logger *slog.Logger, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	r := &Recorder{
		store:  st,
		logger: logger,
		ch:     make(chan model.UsageRecord, buffer),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record enqueues one usage entry without blocking. Entries offered after
// Close, or while the queue is full, are dropped.
func (r *Recorder) Record(rec model.UsageRecord) {
	defer func() {
		// Send on closed channel after shutdown; the record is lost, which
		// matches the best-effort contract.
		if recover() != nil {
			r.logger.Warn("usage record dropped after shutdown", "api_key_id", rec.APIKeyID)
		}
	}()

	select {
	case r.ch <- rec:
	default:
		r.logger.Warn("usage log queue full, dropping record",
			"api_key_id", rec.APIKeyID, "endpoint", rec.Endpoint)
	}
}

// Close stops accepting records and blocks until the queue has drained.
func (r *Recorder) Close() {
	r.once.Do(func() { close(r.ch) })
	r.wg.Wait()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for rec := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.store.InsertUsageLog(ctx, &rec); err != nil {
			// Swallowed on purpose: audit persistence problems must never
			// surface to callers.
			r.logger.Warn("failed to persist usage log",
				"api_key_id", rec.APIKeyID, "error", err)
		}
		cancel()
	}
}
