package analytics

import (
	"sort"
	"strconv"

	"github.com/stemsi/coderunner-dash/internal/model"
)

// Compute derives the full dashboard report from one snapshot. The output is
// deterministic: the same snapshot always yields the same report, regardless
// of record order.
func Compute(snap *model.Snapshot) model.Report {
	roster := make([]string, 0, len(snap.Students))
	for _, s := range snap.Students {
		roster = append(roster, s.Username)
	}

	valid, skipped := splitValid(snap.Records)

	distribution := SuccessDistribution(valid, roster)
	matrix := Matrix(valid)

	totalSubmissions := 0
	for _, s := range snap.Students {
		for _, q := range s.Questions {
			totalSubmissions += q.Submissions
		}
	}

	return model.Report{
		QuizID:       snap.QuizID,
		SyncedAt:     snap.TakenAt,
		Summary:      buildSummary(distribution, totalSubmissions),
		Distribution: distribution,
		Roadblocks:   Roadblocks(valid),
		Matrix:       matrix,
		Grids:        TestGrids(valid),

		SkippedRecords: skipped,
	}
}

// splitValid drops records missing a required identifier and counts them.
// Malformed rows degrade the view, they never abort it.
func splitValid(records []model.SubmissionRecord) ([]model.SubmissionRecord, int) {
	valid := make([]model.SubmissionRecord, 0, len(records))
	skipped := 0
	for _, r := range records {
		if !r.Valid() {
			skipped++
			continue
		}
		valid = append(valid, r)
	}
	return valid, skipped
}

// SuccessDistribution computes per-student pass percentages. Every roster
// student appears; those with zero valid records carry HasData=false rather
// than a zero percentage.
func SuccessDistribution(records []model.SubmissionRecord, roster []string) []model.StudentSuccess {
	passes := make(map[string]int)
	totals := make(map[string]int)

	students := make(map[string]struct{})
	for _, name := range roster {
		students[name] = struct{}{}
	}

	for _, r := range records {
		students[r.Student] = struct{}{}
		totals[r.Student]++
		if r.Passed {
			passes[r.Student]++
		}
	}

	names := make([]string, 0, len(students))
	for name := range students {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.StudentSuccess, 0, len(names))
	for _, name := range names {
		entry := model.StudentSuccess{Student: name}
		if total := totals[name]; total > 0 {
			entry.Passes = passes[name]
			entry.Total = total
			entry.Percentage = float64(passes[name]) / float64(total) * 100
			entry.HasData = true
		}
		out = append(out, entry)
	}
	return out
}

// Roadblocks ranks test cases by failure count, descending, with ties broken
// by test case identifier ascending so output is reproducible.
func Roadblocks(records []model.SubmissionRecord) []model.Roadblock {
	failures := make(map[string]int)
	for _, r := range records {
		if !r.Passed {
			failures[r.TestCase]++
		}
	}

	out := make([]model.Roadblock, 0, len(failures))
	for tc, count := range failures {
		out = append(out, model.Roadblock{TestCase: tc, Failures: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Failures != out[j].Failures {
			return out[i].Failures > out[j].Failures
		}
		return naturalLess(out[i].TestCase, out[j].TestCase)
	})
	return out
}

// Matrix builds the student×question grid of success ratios. Cells for pairs
// with no submissions carry Attempted=false and the neutral color.
func Matrix(records []model.SubmissionRecord) model.ProgressMatrix {
	type pair struct{ student, question string }
	passes := make(map[pair]int)
	totals := make(map[pair]int)
	studentSet := make(map[string]struct{})
	questionSet := make(map[string]struct{})

	for _, r := range records {
		p := pair{r.Student, r.Question}
		totals[p]++
		if r.Passed {
			passes[p]++
		}
		studentSet[r.Student] = struct{}{}
		questionSet[r.Question] = struct{}{}
	}

	students := sortedNatural(studentSet)
	questions := sortedNatural(questionSet)

	cells := make([][]model.MatrixCell, len(students))
	for i, student := range students {
		cells[i] = make([]model.MatrixCell, len(questions))
		for j, question := range questions {
			p := pair{student, question}
			if total := totals[p]; total > 0 {
				ratio := float64(passes[p]) / float64(total)
				cells[i][j] = model.MatrixCell{
					Ratio:     ratio,
					Attempted: true,
					Color:     ColorFor(ratio, true),
				}
			} else {
				cells[i][j] = model.MatrixCell{Color: ColorFor(0, false)}
			}
		}
	}

	return model.ProgressMatrix{Students: students, Questions: questions, Cells: cells}
}

// TestGrids builds the detailed per-question status view: for each question,
// every student's outcome on every test case, with "not run" for test cases
// the student's submission never reached.
func TestGrids(records []model.SubmissionRecord) []model.QuestionGrid {
	byQuestion := make(map[string]map[string]map[string]bool) // question → test case → student → passed
	questionSet := make(map[string]struct{})
	studentSet := make(map[string]struct{})

	for _, r := range records {
		questionSet[r.Question] = struct{}{}
		studentSet[r.Student] = struct{}{}
		if byQuestion[r.Question] == nil {
			byQuestion[r.Question] = make(map[string]map[string]bool)
		}
		if byQuestion[r.Question][r.TestCase] == nil {
			byQuestion[r.Question][r.TestCase] = make(map[string]bool)
		}
		byQuestion[r.Question][r.TestCase][r.Student] = r.Passed
	}

	questions := sortedNatural(questionSet)
	students := sortedNatural(studentSet)

	grids := make([]model.QuestionGrid, 0, len(questions))
	for _, question := range questions {
		testCaseSet := make(map[string]struct{})
		for tc := range byQuestion[question] {
			testCaseSet[tc] = struct{}{}
		}
		testCases := sortedNatural(testCaseSet)

		grid := model.QuestionGrid{Question: question, TestCases: testCases}
		for _, student := range students {
			row := model.GridRow{Student: student}
			for _, tc := range testCases {
				passed, ok := byQuestion[question][tc][student]
				switch {
				case !ok:
					row.States = append(row.States, model.GridNotRun)
				case passed:
					row.States = append(row.States, model.GridPass)
				default:
					row.States = append(row.States, model.GridFail)
				}
			}
			grid.Rows = append(grid.Rows, row)
		}
		grids = append(grids, grid)
	}
	return grids
}

func buildSummary(distribution []model.StudentSuccess, totalSubmissions int) model.Summary {
	sum, n := 0.0, 0
	for _, d := range distribution {
		if d.HasData {
			sum += d.Percentage
			n++
		}
	}
	avg := 0.0
	if n > 0 {
		avg = sum / float64(n)
	}
	return model.Summary{
		Students:         len(distribution),
		TotalSubmissions: totalSubmissions,
		AverageProgress:  avg,
	}
}

func sortedNatural(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return naturalLess(out[i], out[j]) })
	return out
}

// naturalLess compares identifiers like Q2 < Q10 and Q1-T2 < Q1-T10 by
// comparing digit runs numerically and everything else byte-wise.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		an, aRest, aNum := nextToken(a)
		bn, bRest, bNum := nextToken(b)
		if aNum && bNum {
			ai, _ := strconv.Atoi(an)
			bi, _ := strconv.Atoi(bn)
			if ai != bi {
				return ai < bi
			}
		} else if an != bn {
			return an < bn
		}
		a, b = aRest, bRest
	}
	return len(a) < len(b)
}

func nextToken(s string) (token, rest string, numeric bool) {
	if s == "" {
		return "", "", false
	}
	isDigit := s[0] >= '0' && s[0] <= '9'
	i := 1
	for i < len(s) && (s[i] >= '0' && s[i] <= '9') == isDigit {
		i++
	}
	return s[:i], s[i:], isDigit
}
