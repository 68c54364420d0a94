package repository

import (
	"context"
	"sync"

	"github.com/stemsi/coderunner-dash/internal/model"
)

// MemoryHistory keeps the snapshot timeline in process memory. Used when no
// DATABASE_URL is configured; regressions then only span the current run.
type MemoryHistory struct {
	mu     sync.RWMutex
	nextID int64
	snaps  map[string][]*model.Snapshot
	ids    map[string][]int64
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		nextID: 1,
		snaps:  make(map[string][]*model.Snapshot),
		ids:    make(map[string][]int64),
	}
}

func (r *MemoryHistory) Append(_ context.Context, snap *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps[snap.QuizID] = append(r.snaps[snap.QuizID], snap)
	r.ids[snap.QuizID] = append(r.ids[snap.QuizID], r.nextID)
	r.nextID++
	return nil
}

func (r *MemoryHistory) List(_ context.Context, quizID string) ([]model.SnapshotMeta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snaps := r.snaps[quizID]
	metas := make([]model.SnapshotMeta, 0, len(snaps))
	for i, snap := range snaps {
		metas = append(metas, model.SnapshotMeta{
			ID:          r.ids[quizID][i],
			QuizID:      snap.QuizID,
			TakenAt:     snap.TakenAt,
			RecordCount: len(snap.Records),
		})
	}
	return metas, nil
}

func (r *MemoryHistory) Load(_ context.Context, quizID string) ([]*model.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*model.Snapshot(nil), r.snaps[quizID]...), nil
}

func (r *MemoryHistory) DeleteByQuiz(_ context.Context, quizID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.snaps[quizID]))
	delete(r.snaps, quizID)
	delete(r.ids, quizID)
	return n, nil
}
