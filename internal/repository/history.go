package repository

import (
	"context"

	"github.com/stemsi/coderunner-dash/internal/model"
)

// HistoryRepository is the append-only timeline of quiz snapshots. Each
// sync appends one snapshot; the timeline feeds the regression metrics and
// can be reset per quiz from the UI's danger zone.
type HistoryRepository interface {
	Append(ctx context.Context, snap *model.Snapshot) error
	List(ctx context.Context, quizID string) ([]model.SnapshotMeta, error)
	Load(ctx context.Context, quizID string) ([]*model.Snapshot, error)
	DeleteByQuiz(ctx context.Context, quizID string) (int64, error)
}
