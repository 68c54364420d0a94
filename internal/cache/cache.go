package cache

import (
	"context"

	"github.com/stemsi/coderunner-dash/internal/model"
)

// SnapshotCache stores the last successful snapshot per quiz so a dashboard
// can come up with data before its first live sync ("load last sync" in the
// UI). A miss is (nil, false, nil), not an error.
type SnapshotCache interface {
	Put(ctx context.Context, snap *model.Snapshot) error
	Get(ctx context.Context, quizID string) (*model.Snapshot, bool, error)
	Delete(ctx context.Context, quizID string) error
}
