package moodle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stemsi/coderunner-dash/internal/model"
)

// Domain Errors
var (
	ErrAuthentication = errors.New("moodle rejected the credentials")
	ErrFetch          = errors.New("fetching quiz data from moodle failed")
	ErrEmptyResult    = errors.New("quiz has no submissions yet")
)

const (
	loginPath  = "/login/index.php"
	reportPath = "/mod/quiz/report.php"

	// attemptLinkSuffix is appended by Moodle to the student name cell and
	// must be stripped to recover the plain name.
	attemptLinkSuffix = "Revisão de tentativa"
)

// Client is an authenticated scraping session against one Moodle instance.
// It is bound to a single credential pair; one dashboard session owns one
// client and they are never shared between sessions.
type Client struct {
	baseURL  string
	username string
	password string
	retries  int
	http     *http.Client
	log      zerolog.Logger

	loggedIn bool
}

// NewClient builds a Moodle client with its own cookie jar. The password is
// kept in memory only and is never attached to log events.
func NewClient(baseURL, username, password string, timeout time.Duration, retries int, log zerolog.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		retries:  retries,
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		log: log.With().Str("component", "moodle_client").Str("user", username).Logger(),
	}
}

// Login authenticates against the Moodle login form. It scrapes the hidden
// logintoken input first, then posts the credential form. Success is
// detected the way the review UI does: the landing page carries a sesskey
// or a logout link.
func (c *Client) Login(ctx context.Context) error {
	loginURL := c.baseURL + loginPath

	doc, err := c.getDocument(ctx, loginURL)
	if err != nil {
		return fmt.Errorf("%w: load login page: %v", ErrFetch, err)
	}

	token, ok := doc.Find(`input[name="logintoken"]`).Attr("value")
	if !ok {
		return fmt.Errorf("%w: login token not found", ErrAuthentication)
	}

	form := url.Values{
		"username":   {c.username},
		"password":   {c.password},
		"logintoken": {token},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}

	body := string(raw)
	if !strings.Contains(body, "sesskey") && !strings.Contains(body, "login/logout.php") {
		return ErrAuthentication
	}

	c.loggedIn = true
	c.log.Info().Msg("Moodle login succeeded")
	return nil
}

// FetchQuiz retrieves the complete current submission set for a quiz.
// It logs in first if needed, loads the overview report, then walks every
// per-student review page. progress may be nil; when set it receives one
// event per student as the walk advances.
func (c *Client) FetchQuiz(ctx context.Context, quizID string, progress func(model.ProgressEvent)) (*model.Snapshot, error) {
	if !c.loggedIn {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	reportURL := fmt.Sprintf(
		"%s%s?id=%s&mode=overview&attempts=enrolled_with&onlygraded&onlyregraded&slotmarks=1&tsort=firstname&tdir=4",
		c.baseURL, reportPath, url.QueryEscape(quizID),
	)

	doc, err := c.getDocument(ctx, reportURL)
	if err != nil {
		return nil, fmt.Errorf("%w: load report: %v", ErrFetch, err)
	}

	table := doc.Find("table#attempts, table.generaltable").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: attempts table not found", ErrFetch)
	}

	var students []model.StudentResult
	var walkErr error
	seq := 0

	table.Find("tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cols := row.Find("td")
		if cols.Length() < 3 {
			return true
		}

		nameCell := cols.Eq(2)
		link := nameCell.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			return strings.Contains(href, "review.php")
		})
		if link.Length() == 0 {
			return true
		}

		name := strings.TrimSpace(strings.ReplaceAll(nameCell.Text(), attemptLinkSuffix, ""))
		href, _ := link.First().Attr("href")

		seq++
		if progress != nil {
			progress(model.ProgressEvent{Seq: seq, Student: name, State: "fetching"})
		}

		result, err := c.fetchStudentReview(ctx, name, href)
		if err != nil {
			walkErr = err
			return false
		}
		students = append(students, result)

		if progress != nil {
			progress(model.ProgressEvent{Seq: seq, Student: name, State: "done"})
		}
		return true
	})
	if walkErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, walkErr)
	}

	if len(students) == 0 {
		return nil, ErrEmptyResult
	}

	takenAt := time.Now().UTC()
	snap := &model.Snapshot{
		QuizID:   quizID,
		TakenAt:  takenAt,
		Students: students,
		Records:  model.Flatten(students, takenAt),
	}

	c.log.Info().
		Str("quiz_id", quizID).
		Int("students", len(students)).
		Int("records", len(snap.Records)).
		Msg("Quiz fetched")

	return snap, nil
}

// fetchStudentReview loads and parses one student's quiz review page.
func (c *Client) fetchStudentReview(ctx context.Context, name, href string) (model.StudentResult, error) {
	reviewURL := href
	if !strings.HasPrefix(reviewURL, "http") {
		reviewURL = c.baseURL + "/" + strings.TrimLeft(reviewURL, "/")
	}

	doc, err := c.getDocument(ctx, reviewURL)
	if err != nil {
		return model.StudentResult{}, fmt.Errorf("review page for %s: %v", name, err)
	}

	return ParseReviewDocument(doc, name), nil
}

// getDocument GETs a URL and parses it, retrying transient failures with a
// short linear backoff. Retry count comes from configuration; zero disables
// retries entirely.
func (c *Client) getDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return doc, nil
	}
	return nil, lastErr
}
