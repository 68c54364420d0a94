package moodle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/coderunner-dash/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser = "prof"
	testPass = "s3cret"
)

// fakeMoodle serves just enough of the Moodle UI for the scraper: a login
// form, the overview report and per-student review pages.
func fakeMoodle(t *testing.T, students map[string]string, empty bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/login/index.php", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `<html><body><form><input type="hidden" name="logintoken" value="tok123"></form></body></html>`)
			return
		}
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "tok123", r.FormValue("logintoken"))
		if r.FormValue("username") == testUser && r.FormValue("password") == testPass {
			fmt.Fprint(w, `<html><body><a href="login/logout.php">Logout</a></body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body>Invalid login</body></html>`)
	})

	mux.HandleFunc("/mod/quiz/report.php", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "958257", r.URL.Query().Get("id"))
		rows := ""
		if !empty {
			i := 0
			for name := range students {
				rows += fmt.Sprintf(
					`<tr><td>sel</td><td>img</td><td><a href="/mod/quiz/review.php?attempt=%d">%sRevisão de tentativa</a></td><td>grade</td></tr>`,
					i, name)
				i++
			}
		}
		fmt.Fprintf(w, `<html><body><table id="attempts"><tbody>%s</tbody></table></body></html>`, rows)
	})

	mux.HandleFunc("/mod/quiz/review.php", func(w http.ResponseWriter, r *http.Request) {
		// Every student gets the same single-question page in these tests.
		fmt.Fprint(w, `<html><body>`+reviewPageHTML+`</body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server, password string) *Client {
	return NewClient(srv.URL, testUser, password, 5*time.Second, 0, zerolog.Nop())
}

func TestLoginSuccess(t *testing.T) {
	srv := fakeMoodle(t, nil, true)
	client := newTestClient(srv, testPass)

	require.NoError(t, client.Login(context.Background()))
}

func TestLoginBadCredentials(t *testing.T) {
	srv := fakeMoodle(t, nil, true)
	client := newTestClient(srv, "wrong")

	err := client.Login(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestFetchQuiz(t *testing.T) {
	srv := fakeMoodle(t, map[string]string{"Alice Silva": "", "Bob Costa": ""}, false)
	client := newTestClient(srv, testPass)

	var events []model.ProgressEvent
	snap, err := client.FetchQuiz(context.Background(), "958257", func(ev model.ProgressEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	require.Len(t, snap.Students, 2)
	names := []string{snap.Students[0].Username, snap.Students[1].Username}
	assert.Contains(t, names, "Alice Silva")
	assert.Contains(t, names, "Bob Costa")

	// Each student: Q1 has 2 test cases, Q2 has 1 → 3 records per student.
	assert.Len(t, snap.Records, 6)
	assert.Equal(t, "958257", snap.QuizID)

	// One fetching and one done event per student.
	assert.Len(t, events, 4)
}

func TestFetchQuizEmptyResult(t *testing.T) {
	srv := fakeMoodle(t, nil, true)
	client := newTestClient(srv, testPass)

	_, err := client.FetchQuiz(context.Background(), "958257", nil)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestFetchQuizReportUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/index.php", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `<input type="hidden" name="logintoken" value="tok123">`)
			return
		}
		fmt.Fprint(w, "sesskey")
	})
	mux.HandleFunc("/mod/quiz/report.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>No permission</body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := newTestClient(srv, testPass)
	_, err := client.FetchQuiz(context.Background(), "958257", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)
	assert.False(t, errors.Is(err, ErrEmptyResult))
}

func TestFetchQuizRetriesServerErrors(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/login/index.php", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			attempts++
			if attempts == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, `<input type="hidden" name="logintoken" value="tok123">`)
			return
		}
		fmt.Fprint(w, "sesskey")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, testUser, testPass, 5*time.Second, 2, zerolog.Nop())
	require.NoError(t, client.Login(context.Background()))
	assert.Equal(t, 2, attempts)
}
