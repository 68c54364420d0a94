// Command fetch runs a single headless sync: login, fetch, aggregate, print.
// Useful for cron jobs and for checking credentials without the dashboard.
package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/stemsi/coderunner-dash/internal/analytics"
	"github.com/stemsi/coderunner-dash/internal/config"
	"github.com/stemsi/coderunner-dash/internal/logger"
	"github.com/stemsi/coderunner-dash/internal/moodle"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	username := cfg.MoodleUser
	if username == "" {
		fmt.Print("Moodle user: ")
		fmt.Scanln(&username)
	}

	password := cfg.MoodlePass
	if password == "" {
		// Prompt without echo so the password never appears on screen.
		fmt.Print("Moodle password: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read password")
		}
		password = string(raw)
	}

	quizID := cfg.MoodleQuizID
	if len(os.Args) > 1 {
		quizID = os.Args[1]
	}
	if quizID == "" {
		log.Fatal().Msg("Quiz ID required: pass as argument or set MOODLE_QUIZ_ID")
	}

	client := moodle.NewClient(cfg.MoodleBaseURL, username, password, cfg.FetchTimeout, cfg.FetchRetries, log)
	ctx := context.Background()

	snap, err := client.FetchQuiz(ctx, quizID, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Fetch failed")
	}

	report := analytics.Compute(snap)

	fmt.Printf("\nQuiz %s: %d students, %d submissions, %.1f%% average progress\n\n",
		report.QuizID, report.Summary.Students, report.Summary.TotalSubmissions, report.Summary.AverageProgress)

	fmt.Println("Success distribution:")
	for _, d := range report.Distribution {
		if d.HasData {
			fmt.Printf("  %-30s %5.1f%% (%d/%d)\n", d.Student, d.Percentage, d.Passes, d.Total)
		} else {
			fmt.Printf("  %-30s no data\n", d.Student)
		}
	}

	if len(report.Roadblocks) > 0 {
		fmt.Println("\nTop roadblocks:")
		limit := len(report.Roadblocks)
		if limit > 10 {
			limit = 10
		}
		for _, rb := range report.Roadblocks[:limit] {
			fmt.Printf("  %-10s %d failures\n", rb.TestCase, rb.Failures)
		}
	}
}
