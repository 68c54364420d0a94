package analytics

import (
	"sort"

	"github.com/stemsi/coderunner-dash/internal/model"
)

// forgivenessWindow is the number of trailing passes that wipes a test
// case's regression count: a student who stabilized is not penalized for
// earlier churn.
const forgivenessWindow = 4

// CountRegressions counts pass→fail transitions in one test case's timeline.
// A timeline whose last forgivenessWindow outcomes are all passes reports 0.
func CountRegressions(timeline []bool) int {
	if len(timeline) < 2 {
		return 0
	}

	if len(timeline) >= forgivenessWindow {
		allPass := true
		for _, passed := range timeline[len(timeline)-forgivenessWindow:] {
			if !passed {
				allPass = false
				break
			}
		}
		if allPass {
			return 0
		}
	}

	regressions := 0
	for i := 1; i < len(timeline); i++ {
		if timeline[i-1] && !timeline[i] {
			regressions++
		}
	}
	return regressions
}

// ComputeRegressions walks the snapshot history (oldest first) and reports,
// per (student, question), how many pass→fail transitions its test cases
// accumulated across syncs. Pairs with zero regressions are omitted.
func ComputeRegressions(history []*model.Snapshot) []model.RegressionEntry {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].TakenAt.Before(history[j].TakenAt)
	})

	// Collect every (student, question, test) coordinate seen anywhere.
	type coord struct {
		student  string
		question int
		test     int
	}
	seen := make(map[coord]struct{})
	for _, snap := range history {
		for _, s := range snap.Students {
			for qi, q := range s.Questions {
				for ti := range q.Tests {
					seen[coord{s.Username, qi, ti}] = struct{}{}
				}
			}
		}
	}

	type pairKey struct {
		student  string
		question int
	}
	counts := make(map[pairKey]int)

	for c := range seen {
		var timeline []bool
		for _, snap := range history {
			for _, s := range snap.Students {
				if s.Username != c.student {
					continue
				}
				if c.question < len(s.Questions) && c.test < len(s.Questions[c.question].Tests) {
					timeline = append(timeline, s.Questions[c.question].Tests[c.test])
				}
				break
			}
		}
		counts[pairKey{c.student, c.question}] += CountRegressions(timeline)
	}

	out := make([]model.RegressionEntry, 0, len(counts))
	for k, n := range counts {
		if n == 0 {
			continue
		}
		out = append(out, model.RegressionEntry{
			Student:     k.student,
			Question:    model.QuestionID(k.question),
			Regressions: n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Student != out[j].Student {
			return out[i].Student < out[j].Student
		}
		return naturalLess(out[i].Question, out[j].Question)
	})
	return out
}
