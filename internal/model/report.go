package model

import "time"

// StudentSuccess is one row of the success distribution. HasData is false
// for students with zero valid records; Percentage is meaningless then.
type StudentSuccess struct {
	Student    string  `json:"student"`
	Passes     int     `json:"passes"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	HasData    bool    `json:"has_data"`
}

// Roadblock is one test case ranked by how many students fail it.
type Roadblock struct {
	TestCase string `json:"test_case"`
	Failures int    `json:"failures"`
}

// MatrixCell is one student×question cell of the progress matrix.
// Attempted=false marks pairs with no submissions; such cells carry the
// neutral color, never a value interpolated into the numeric scale.
type MatrixCell struct {
	Ratio     float64 `json:"ratio"`
	Attempted bool    `json:"attempted"`
	Color     string  `json:"color"`
}

// ProgressMatrix is the student×question grid of success ratios.
// Rows follow Students order, columns follow Questions order.
type ProgressMatrix struct {
	Students  []string       `json:"students"`
	Questions []string       `json:"questions"`
	Cells     [][]MatrixCell `json:"cells"`
}

// GridState is the rendered status of one test case for one student.
type GridState string

const (
	GridPass   GridState = "pass"
	GridFail   GridState = "fail"
	GridNotRun GridState = "not_run"
)

// GridRow holds one student's test case states for a single question.
type GridRow struct {
	Student string      `json:"student"`
	States  []GridState `json:"states"`
}

// QuestionGrid is the detailed per-question test case status view.
type QuestionGrid struct {
	Question  string    `json:"question"`
	TestCases []string  `json:"test_cases"`
	Rows      []GridRow `json:"rows"`
}

// Summary holds the top metric cards.
type Summary struct {
	Students         int     `json:"students"`
	TotalSubmissions int     `json:"total_submissions"`
	AverageProgress  float64 `json:"average_progress"`
}

// Report is the full aggregate view of one snapshot. It is a pure function
// of the snapshot's record set: recomputing it never changes the output.
type Report struct {
	QuizID         string           `json:"quiz_id"`
	SyncedAt       time.Time        `json:"synced_at"`
	Summary        Summary          `json:"summary"`
	Distribution   []StudentSuccess `json:"distribution"`
	Roadblocks     []Roadblock      `json:"roadblocks"`
	Matrix         ProgressMatrix   `json:"matrix"`
	Grids          []QuestionGrid   `json:"grids"`
	SkippedRecords int              `json:"skipped_records"`
	Stale          bool             `json:"stale"`
}

// RegressionEntry reports pass→fail transitions over the snapshot history
// for one (student, question) pair.
type RegressionEntry struct {
	Student     string `json:"student"`
	Question    string `json:"question"`
	Regressions int    `json:"regressions"`
}

// ProgressEvent is one live update emitted while a sync walks the
// per-student review pages.
type ProgressEvent struct {
	Seq     int    `json:"seq"`
	Student string `json:"student"`
	State   string `json:"state"`
}
