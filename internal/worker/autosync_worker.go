package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/coderunner-dash/internal/service"
	"github.com/stemsi/coderunner-dash/internal/session"
)

// checkInterval is how often the worker scans sessions for due auto-syncs.
const checkInterval = 30 * time.Second

// AutoSyncWorker periodically re-syncs sessions that enabled auto-sync.
// Each due session syncs on its own goroutine; the per-session sync lock
// keeps a slow manual sync and an auto-sync from overlapping.
type AutoSyncWorker struct {
	store       *session.Store
	syncService *service.SyncService
	log         zerolog.Logger
}

func NewAutoSyncWorker(store *session.Store, syncService *service.SyncService, log zerolog.Logger) *AutoSyncWorker {
	return &AutoSyncWorker{
		store:       store,
		syncService: syncService,
		log:         log.With().Str("component", "autosync_worker").Logger(),
	}
}

// Start runs the scan loop until ctx is cancelled.
func (w *AutoSyncWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AutoSyncWorker started")

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("AutoSyncWorker stopped")
			return
		case now := <-ticker.C:
			w.scan(ctx, now)
		}
	}
}

func (w *AutoSyncWorker) scan(ctx context.Context, now time.Time) {
	w.store.Range(func(sess *session.Session) {
		if !sess.DueForAutoSync(now) {
			return
		}

		go func(sess *session.Session) {
			if _, err := w.syncService.Sync(ctx, sess, nil); err != nil {
				w.log.Warn().
					Err(err).
					Str("quiz_id", sess.QuizID).
					Msg("Auto-sync failed")
			}
		}(sess)
	})
}
