package moodle

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/stemsi/coderunner-dash/internal/model"
)

// submissionMarker appears in the per-question history table once per
// student submission.
const submissionMarker = "Enviar:"

// ParseReviewDocument extracts every CodeRunner question block from a quiz
// review page. Questions of other types are ignored.
func ParseReviewDocument(doc *goquery.Document, username string) model.StudentResult {
	result := model.StudentResult{Username: username}

	doc.Find("div.que.coderunner").Each(func(_ int, div *goquery.Selection) {
		result.Questions = append(result.Questions, parseQuestionDiv(div))
	})

	return result
}

// parseQuestionDiv pulls score, test case outcomes and submission count out
// of one rendered CodeRunner question block.
func parseQuestionDiv(div *goquery.Selection) model.QuestionResult {
	earned, total := 0.0, 1.0

	if grading := div.Find("div.gradingdetails").First(); grading.Length() > 0 {
		if p, t, ok := parseScoreText(grading.Text()); ok {
			earned, total = p, t
		}
	}

	var tests []bool
	div.Find("table.coderunner-test-results tbody tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 4 {
			return
		}
		icon := cols.Eq(0).Find("i").First()
		class, _ := icon.Attr("class")
		tests = append(tests, strings.Contains(class, "fa-check"))
	})

	submissions := 0
	div.Find("div.history table.generaltable tbody tr").Each(func(_ int, row *goquery.Selection) {
		if strings.Contains(row.Text(), submissionMarker) {
			submissions++
		}
	})
	if submissions < 1 {
		submissions = 1
	}

	score := 0.0
	if total > 0 {
		// One decimal place, matching the grading detail display.
		score = float64(int(earned/total*1000+0.5)) / 10
	}

	return model.QuestionResult{
		Submissions: submissions,
		FinalScore:  score,
		Tests:       tests,
	}
}

// parseScoreText extracts "earned/total" from the grading details line.
// Moodle renders pt-BR decimals ("7,50/10,00"), so commas become points and
// thousand separators are dropped.
func parseScoreText(text string) (earned, total float64, ok bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return 0, 0, false
	}

	last := fields[len(fields)-1]
	parts := strings.Split(last, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}

	earned, err := strconv.ParseFloat(strings.ReplaceAll(parts[0], ",", "."), 64)
	if err != nil {
		return 0, 0, false
	}
	total, err = strconv.ParseFloat(strings.ReplaceAll(strings.ReplaceAll(parts[1], ".", ""), ",", "."), 64)
	if err != nil {
		return 0, 0, false
	}

	return earned, total, true
}
