package model

import (
	"fmt"
	"time"
)

// SubmissionRecord is one graded attempt by a student against one test case
// of one question. It is a read-only snapshot row; the authoritative data
// lives in Moodle and each sync replaces the whole set.
type SubmissionRecord struct {
	Student   string    `json:"student"`
	Question  string    `json:"question"`
	TestCase  string    `json:"test_case"`
	Passed    bool      `json:"passed"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Valid reports whether the record carries every required identifier.
// Invalid records are skipped by the aggregator and counted as integrity
// errors rather than failing the whole view.
func (r SubmissionRecord) Valid() bool {
	return r.Student != "" && r.Question != "" && r.TestCase != ""
}

// QuestionResult is one CodeRunner question block parsed from a student's
// quiz review page.
type QuestionResult struct {
	Submissions int     `json:"submissions"`
	FinalScore  float64 `json:"final_score"`
	Tests       []bool  `json:"tests"`
}

// StudentResult groups the parsed question results for one student.
type StudentResult struct {
	Username  string           `json:"username"`
	Questions []QuestionResult `json:"questions"`
}

// Snapshot is one complete fetch of a quiz: all submission records plus the
// structured per-student results they were flattened from.
type Snapshot struct {
	QuizID   string             `json:"quiz_id"`
	TakenAt  time.Time          `json:"taken_at"`
	Students []StudentResult    `json:"students"`
	Records  []SubmissionRecord `json:"records"`
}

// SnapshotMeta describes a stored history snapshot without its payload.
type SnapshotMeta struct {
	ID          int64     `json:"id"`
	QuizID      string    `json:"quiz_id"`
	TakenAt     time.Time `json:"taken_at"`
	RecordCount int       `json:"record_count"`
}

// QuestionID returns the canonical identifier for the 1-based question index.
func QuestionID(idx int) string {
	return fmt.Sprintf("Q%d", idx+1)
}

// TestCaseID returns the canonical identifier for a test case, qualified by
// its question so failure counts aggregate per test case across students.
func TestCaseID(questionIdx, testIdx int) string {
	return fmt.Sprintf("Q%d-T%d", questionIdx+1, testIdx+1)
}

// Flatten expands structured per-student results into the flat record set
// the aggregator consumes.
func Flatten(students []StudentResult, fetchedAt time.Time) []SubmissionRecord {
	var records []SubmissionRecord
	for _, s := range students {
		for qi, q := range s.Questions {
			for ti, passed := range q.Tests {
				records = append(records, SubmissionRecord{
					Student:   s.Username,
					Question:  QuestionID(qi),
					TestCase:  TestCaseID(qi, ti),
					Passed:    passed,
					FetchedAt: fetchedAt,
				})
			}
		}
	}
	return records
}
