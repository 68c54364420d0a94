package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/coderunner-dash/internal/analytics"
	"github.com/stemsi/coderunner-dash/internal/cache"
	"github.com/stemsi/coderunner-dash/internal/config"
	"github.com/stemsi/coderunner-dash/internal/model"
	"github.com/stemsi/coderunner-dash/internal/moodle"
	"github.com/stemsi/coderunner-dash/internal/repository"
	"github.com/stemsi/coderunner-dash/internal/session"
)

// Domain Errors
var (
	ErrMissingQuizID = errors.New("quiz id is required")
	ErrInvalidQuizID = errors.New("quiz id must be numeric")
	ErrNoSnapshot    = errors.New("no snapshot available for this quiz")
)

// Credentials is one resolved credential set for a dashboard session.
type Credentials struct {
	Username string
	Password string
	QuizID   string
}

// SyncService orchestrates the sync pipeline: fetch from Moodle, aggregate,
// keep the result on the session, and feed the cache and history stores.
type SyncService struct {
	cfg     *config.Config
	cache   cache.SnapshotCache
	history repository.HistoryRepository
	log     zerolog.Logger
}

// NewSyncService creates a SyncService.
func NewSyncService(cfg *config.Config, snapCache cache.SnapshotCache, history repository.HistoryRepository, log zerolog.Logger) *SyncService {
	return &SyncService{
		cfg:     cfg,
		cache:   snapCache,
		history: history,
		log:     log.With().Str("component", "sync_service").Logger(),
	}
}

// ResolveCredentials applies the configured resolution order: explicit form
// input overrides the environment default, which overrides empty. A missing
// or non-numeric quiz id is a configuration error.
func (s *SyncService) ResolveCredentials(username, password, quizID string) (Credentials, error) {
	creds := Credentials{Username: username, Password: password, QuizID: quizID}
	if creds.Username == "" {
		creds.Username = s.cfg.MoodleUser
	}
	if creds.Password == "" {
		creds.Password = s.cfg.MoodlePass
	}
	if creds.QuizID == "" {
		creds.QuizID = s.cfg.MoodleQuizID
	}

	if creds.QuizID == "" {
		return Credentials{}, ErrMissingQuizID
	}
	if _, err := strconv.Atoi(creds.QuizID); err != nil {
		return Credentials{}, ErrInvalidQuizID
	}
	return creds, nil
}

// NewMoodleClient builds a client for one credential set using the
// configured base URL, timeout and retry policy.
func (s *SyncService) NewMoodleClient(creds Credentials) *moodle.Client {
	return moodle.NewClient(
		s.cfg.MoodleBaseURL,
		creds.Username,
		creds.Password,
		s.cfg.FetchTimeout,
		s.cfg.FetchRetries,
		s.log,
	)
}

// Sync runs one complete fetch→aggregate→store pass for a session. It is a
// synchronous, blocking sequence serialized per session.
//
// Failure semantics follow the dashboard contract:
//   - empty result: an empty report replaces the view, returned alongside
//     moodle.ErrEmptyResult so callers can attach the empty-state notice;
//   - fetch/auth failure: the previous report is preserved and marked stale,
//     the error is returned.
func (s *SyncService) Sync(ctx context.Context, sess *session.Session, progress func(model.ProgressEvent)) (*model.Report, error) {
	sess.Lock()
	defer sess.Unlock()

	snap, err := sess.Client.FetchQuiz(ctx, sess.QuizID, progress)
	if err != nil {
		if errors.Is(err, moodle.ErrEmptyResult) {
			empty := emptySnapshot(sess.QuizID)
			report := analytics.Compute(empty)
			sess.SetResult(empty, &report)
			return &report, err
		}

		sess.MarkStale()
		s.log.Warn().Err(err).Str("quiz_id", sess.QuizID).Msg("Sync failed, keeping previous snapshot")
		return nil, err
	}

	report := analytics.Compute(snap)
	sess.SetResult(snap, &report)

	if err := s.cache.Put(ctx, snap); err != nil {
		s.log.Warn().Err(err).Msg("Snapshot cache write failed")
	}
	if err := s.history.Append(ctx, snap); err != nil {
		s.log.Warn().Err(err).Msg("History append failed")
	}

	s.log.Info().
		Str("quiz_id", sess.QuizID).
		Int("students", report.Summary.Students).
		Int("skipped", report.SkippedRecords).
		Msg("Sync complete")

	return &report, nil
}

// CachedReport recomputes the report from the last cached snapshot for a
// quiz. Returns ErrNoSnapshot when nothing has been cached yet.
func (s *SyncService) CachedReport(ctx context.Context, quizID string) (*model.Report, error) {
	snap, ok, err := s.cache.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSnapshot
	}
	report := analytics.Compute(snap)
	return &report, nil
}

// History lists stored snapshot metadata for a quiz, oldest first.
func (s *SyncService) History(ctx context.Context, quizID string) ([]model.SnapshotMeta, error) {
	return s.history.List(ctx, quizID)
}

// Regressions computes pass→fail regression counts over the stored history.
func (s *SyncService) Regressions(ctx context.Context, quizID string) ([]model.RegressionEntry, error) {
	snaps, err := s.history.Load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return analytics.ComputeRegressions(snaps), nil
}

// ResetHistory deletes all stored snapshots and the cached last sync for a
// quiz. Returns how many history snapshots were removed.
func (s *SyncService) ResetHistory(ctx context.Context, quizID string) (int64, error) {
	n, err := s.history.DeleteByQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Delete(ctx, quizID); err != nil {
		s.log.Warn().Err(err).Msg("Cache delete failed")
	}
	return n, nil
}

func emptySnapshot(quizID string) *model.Snapshot {
	return &model.Snapshot{QuizID: quizID, TakenAt: time.Now().UTC()}
}
