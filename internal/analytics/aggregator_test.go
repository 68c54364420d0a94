package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stemsi/coderunner-dash/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(student, question, testCase string, passed bool) model.SubmissionRecord {
	return model.SubmissionRecord{
		Student:  student,
		Question: question,
		TestCase: testCase,
		Passed:   passed,
	}
}

func TestSuccessDistributionWorkedExample(t *testing.T) {
	records := []model.SubmissionRecord{
		record("alice", "Q1", "Q1-T1", true),
		record("alice", "Q1", "Q1-T2", false),
		record("bob", "Q1", "Q1-T1", false),
	}

	dist := SuccessDistribution(records, nil)
	require.Len(t, dist, 2)

	assert.Equal(t, "alice", dist[0].Student)
	assert.True(t, dist[0].HasData)
	assert.InDelta(t, 50.0, dist[0].Percentage, 1e-9)

	assert.Equal(t, "bob", dist[1].Student)
	assert.True(t, dist[1].HasData)
	assert.InDelta(t, 0.0, dist[1].Percentage, 1e-9)
}

func TestSuccessDistributionBoundsAndSentinel(t *testing.T) {
	records := []model.SubmissionRecord{
		record("carol", "Q1", "Q1-T1", true),
		record("carol", "Q2", "Q2-T1", true),
	}

	// dave is on the roster but has no records: sentinel, not 0%.
	dist := SuccessDistribution(records, []string{"carol", "dave"})
	require.Len(t, dist, 2)

	for _, d := range dist {
		if d.HasData {
			assert.GreaterOrEqual(t, d.Percentage, 0.0)
			assert.LessOrEqual(t, d.Percentage, 100.0)
		}
	}

	assert.Equal(t, "dave", dist[1].Student)
	assert.False(t, dist[1].HasData)
}

func TestRoadblocksOrderingAndTieBreak(t *testing.T) {
	records := []model.SubmissionRecord{
		record("alice", "Q1", "Q1-T1", true),
		record("alice", "Q1", "Q1-T2", false),
		record("bob", "Q1", "Q1-T1", false),
	}

	rb := Roadblocks(records)
	require.Len(t, rb, 2)

	// Both fail once; ties break by identifier ascending.
	assert.Equal(t, "Q1-T1", rb[0].TestCase)
	assert.Equal(t, 1, rb[0].Failures)
	assert.Equal(t, "Q1-T2", rb[1].TestCase)
	assert.Equal(t, 1, rb[1].Failures)
}

func TestRoadblocksNonIncreasingAndStableUnderReordering(t *testing.T) {
	records := []model.SubmissionRecord{
		record("a", "Q1", "Q1-T1", false),
		record("b", "Q1", "Q1-T1", false),
		record("c", "Q1", "Q1-T1", false),
		record("a", "Q2", "Q2-T1", false),
		record("b", "Q2", "Q2-T1", false),
		record("a", "Q1", "Q1-T2", false),
	}

	forward := Roadblocks(records)

	reversed := make([]model.SubmissionRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	backward := Roadblocks(reversed)

	assert.Equal(t, forward, backward)

	for i := 1; i < len(forward); i++ {
		assert.LessOrEqual(t, forward[i].Failures, forward[i-1].Failures)
	}
}

func TestMatrixCellsAndNotAttemptedSentinel(t *testing.T) {
	records := []model.SubmissionRecord{
		record("alice", "Q1", "Q1-T1", true),
		record("alice", "Q1", "Q1-T2", false),
		record("bob", "Q1", "Q1-T1", false),
		record("alice", "Q2", "Q2-T1", true),
	}

	m := Matrix(records)
	require.Equal(t, []string{"alice", "bob"}, m.Students)
	require.Equal(t, []string{"Q1", "Q2"}, m.Questions)

	assert.True(t, m.Cells[0][0].Attempted)
	assert.InDelta(t, 0.5, m.Cells[0][0].Ratio, 1e-9)

	assert.True(t, m.Cells[1][0].Attempted)
	assert.InDelta(t, 0.0, m.Cells[1][0].Ratio, 1e-9)

	// bob never attempted Q2: sentinel cell, neutral color, not 0.
	assert.False(t, m.Cells[1][1].Attempted)
	assert.Equal(t, ColorFor(0, false), m.Cells[1][1].Color)

	for _, row := range m.Cells {
		for _, cell := range row {
			if cell.Attempted {
				assert.GreaterOrEqual(t, cell.Ratio, 0.0)
				assert.LessOrEqual(t, cell.Ratio, 1.0)
			}
		}
	}
}

func TestComputeEmptySnapshot(t *testing.T) {
	snap := &model.Snapshot{QuizID: "958257", TakenAt: time.Now().UTC()}

	report := Compute(snap)

	assert.Equal(t, 0, report.Summary.Students)
	assert.Empty(t, report.Roadblocks)
	assert.Empty(t, report.Matrix.Students)
	assert.Empty(t, report.Distribution)
}

func TestComputeSkipsMalformedRecords(t *testing.T) {
	snap := &model.Snapshot{
		QuizID:  "958257",
		TakenAt: time.Now().UTC(),
		Records: []model.SubmissionRecord{
			record("alice", "Q1", "Q1-T1", true),
			record("", "Q1", "Q1-T1", false),  // missing student
			record("bob", "", "Q1-T1", false), // missing question
		},
	}

	report := Compute(snap)

	assert.Equal(t, 2, report.SkippedRecords)
	require.Len(t, report.Distribution, 1)
	assert.Equal(t, "alice", report.Distribution[0].Student)
	assert.InDelta(t, 100.0, report.Distribution[0].Percentage, 1e-9)
}

func TestComputeDeterministic(t *testing.T) {
	takenAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	snap := &model.Snapshot{
		QuizID:  "958257",
		TakenAt: takenAt,
		Students: []model.StudentResult{
			{Username: "alice", Questions: []model.QuestionResult{{Submissions: 3, FinalScore: 50, Tests: []bool{true, false}}}},
			{Username: "bob", Questions: []model.QuestionResult{{Submissions: 1, FinalScore: 0, Tests: []bool{false}}}},
		},
	}
	snap.Records = model.Flatten(snap.Students, takenAt)

	first, err := json.Marshal(Compute(snap))
	require.NoError(t, err)
	second, err := json.Marshal(Compute(snap))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSummaryCountsSubmissions(t *testing.T) {
	takenAt := time.Now().UTC()
	snap := &model.Snapshot{
		QuizID:  "958257",
		TakenAt: takenAt,
		Students: []model.StudentResult{
			{Username: "alice", Questions: []model.QuestionResult{{Submissions: 3, Tests: []bool{true}}, {Submissions: 2, Tests: []bool{true}}}},
			{Username: "bob", Questions: []model.QuestionResult{{Submissions: 1, Tests: []bool{false}}}},
		},
	}
	snap.Records = model.Flatten(snap.Students, takenAt)

	report := Compute(snap)

	assert.Equal(t, 2, report.Summary.Students)
	assert.Equal(t, 6, report.Summary.TotalSubmissions)
}

func TestTestGridsMarksNotRun(t *testing.T) {
	records := []model.SubmissionRecord{
		record("alice", "Q1", "Q1-T1", true),
		record("alice", "Q1", "Q1-T2", false),
		record("bob", "Q1", "Q1-T1", false),
		// bob's submission never reached Q1-T2.
	}

	grids := TestGrids(records)
	require.Len(t, grids, 1)
	require.Equal(t, []string{"Q1-T1", "Q1-T2"}, grids[0].TestCases)
	require.Len(t, grids[0].Rows, 2)

	assert.Equal(t, []model.GridState{model.GridPass, model.GridFail}, grids[0].Rows[0].States)
	assert.Equal(t, []model.GridState{model.GridFail, model.GridNotRun}, grids[0].Rows[1].States)
}

func TestNaturalLessOrdersNumericSuffixes(t *testing.T) {
	assert.True(t, naturalLess("Q2", "Q10"))
	assert.True(t, naturalLess("Q1-T2", "Q1-T10"))
	assert.False(t, naturalLess("Q10", "Q2"))
	assert.True(t, naturalLess("Q1-T1", "Q2-T1"))
}
