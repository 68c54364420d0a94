package cache

import (
	"context"
	"sync"

	"github.com/stemsi/coderunner-dash/internal/model"
)

// MemoryCache is the in-process SnapshotCache used when no REDIS_URL is
// configured. Contents are lost on restart, which matches the stateless
// default of the service.
type MemoryCache struct {
	mu    sync.RWMutex
	snaps map[string]*model.Snapshot
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{snaps: make(map[string]*model.Snapshot)}
}

func (c *MemoryCache) Put(_ context.Context, snap *model.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps[snap.QuizID] = snap
	return nil
}

func (c *MemoryCache) Get(_ context.Context, quizID string) (*model.Snapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.snaps[quizID]
	return snap, ok, nil
}

func (c *MemoryCache) Delete(_ context.Context, quizID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snaps, quizID)
	return nil
}
