package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/coderunner-dash/internal/model"
)

// PostgresHistory stores snapshots in the quiz_snapshots table with the
// full record payload as JSONB.
type PostgresHistory struct {
	pool *pgxpool.Pool
}

func NewPostgresHistory(pool *pgxpool.Pool) *PostgresHistory {
	return &PostgresHistory{pool: pool}
}

func (r *PostgresHistory) Append(ctx context.Context, snap *model.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO quiz_snapshots (quiz_id, taken_at, record_count, payload)
		 VALUES ($1, $2, $3, $4)`,
		snap.QuizID, snap.TakenAt, len(snap.Records), payload)
	return err
}

func (r *PostgresHistory) List(ctx context.Context, quizID string) ([]model.SnapshotMeta, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, taken_at, record_count FROM quiz_snapshots
		 WHERE quiz_id = $1 ORDER BY taken_at ASC`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []model.SnapshotMeta
	for rows.Next() {
		var m model.SnapshotMeta
		if err := rows.Scan(&m.ID, &m.QuizID, &m.TakenAt, &m.RecordCount); err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

func (r *PostgresHistory) Load(ctx context.Context, quizID string) ([]*model.Snapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT payload FROM quiz_snapshots
		 WHERE quiz_id = $1 ORDER BY taken_at ASC`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*model.Snapshot
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var snap model.Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		snaps = append(snaps, &snap)
	}
	return snaps, rows.Err()
}

func (r *PostgresHistory) DeleteByQuiz(ctx context.Context, quizID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quiz_snapshots WHERE quiz_id = $1`, quizID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
