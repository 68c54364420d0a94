package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/coderunner-dash/internal/cache"
	"github.com/stemsi/coderunner-dash/internal/config"
	"github.com/stemsi/coderunner-dash/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(cfg *config.Config) *SyncService {
	return NewSyncService(cfg, cache.NewMemoryCache(), repository.NewMemoryHistory(), zerolog.Nop())
}

func TestResolveCredentialsFormOverridesEnv(t *testing.T) {
	s := newTestService(&config.Config{
		MoodleUser:   "env-user",
		MoodlePass:   "env-pass",
		MoodleQuizID: "111111",
	})

	creds, err := s.ResolveCredentials("form-user", "form-pass", "958257")
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "form-user", Password: "form-pass", QuizID: "958257"}, creds)
}

func TestResolveCredentialsEnvFillsGaps(t *testing.T) {
	s := newTestService(&config.Config{
		MoodleUser:   "env-user",
		MoodlePass:   "env-pass",
		MoodleQuizID: "111111",
	})

	creds, err := s.ResolveCredentials("", "", "")
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "env-user", Password: "env-pass", QuizID: "111111"}, creds)
}

func TestResolveCredentialsQuizIDRequired(t *testing.T) {
	s := newTestService(&config.Config{})

	_, err := s.ResolveCredentials("user", "pass", "")
	assert.ErrorIs(t, err, ErrMissingQuizID)
}

func TestResolveCredentialsQuizIDNumeric(t *testing.T) {
	s := newTestService(&config.Config{})

	_, err := s.ResolveCredentials("user", "pass", "not-a-number")
	assert.ErrorIs(t, err, ErrInvalidQuizID)
}

func TestNewMoodleClientUsesConfiguredPolicy(t *testing.T) {
	s := newTestService(&config.Config{
		MoodleBaseURL: "https://moodle.example.edu",
		FetchTimeout:  10 * time.Second,
		FetchRetries:  3,
	})

	client := s.NewMoodleClient(Credentials{Username: "u", Password: "p", QuizID: "1"})
	require.NotNil(t, client)
}
