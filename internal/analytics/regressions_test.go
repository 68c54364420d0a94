package analytics

import (
	"testing"
	"time"

	"github.com/stemsi/coderunner-dash/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountRegressions(t *testing.T) {
	tests := []struct {
		name     string
		timeline []bool
		want     int
	}{
		{"empty", nil, 0},
		{"single", []bool{true}, 0},
		{"no regression", []bool{false, false, true}, 0},
		{"one regression", []bool{true, false}, 1},
		{"two regressions", []bool{true, false, true, false}, 1 + 1},
		{"forgiven after four passes", []bool{true, false, true, true, true, true}, 0},
		{"not forgiven with recent fail", []bool{true, false, true, true, false, true}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountRegressions(tt.timeline))
		})
	}
}

func snapAt(ts time.Time, passed ...bool) *model.Snapshot {
	return &model.Snapshot{
		QuizID:  "958257",
		TakenAt: ts,
		Students: []model.StudentResult{
			{Username: "alice", Questions: []model.QuestionResult{{Submissions: 1, Tests: passed}}},
		},
	}
}

func TestComputeRegressionsAcrossHistory(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// Test 1 goes pass→fail→pass; test 2 stays failing.
	history := []*model.Snapshot{
		snapAt(base, true, false),
		snapAt(base.Add(time.Hour), false, false),
		snapAt(base.Add(2*time.Hour), true, false),
	}

	entries := ComputeRegressions(history)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Student)
	assert.Equal(t, "Q1", entries[0].Question)
	assert.Equal(t, 1, entries[0].Regressions)
}

func TestComputeRegressionsSortsSnapshotsByTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// Delivered newest-first; the walk must still see pass then fail.
	history := []*model.Snapshot{
		snapAt(base.Add(time.Hour), false),
		snapAt(base, true),
	}

	entries := ComputeRegressions(history)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Regressions)
}

func TestComputeRegressionsEmptyHistory(t *testing.T) {
	assert.Empty(t, ComputeRegressions(nil))
}
