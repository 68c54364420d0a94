package session

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/coderunner-dash/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundtrip(t *testing.T) {
	secret := "test-secret"
	id := uuid.New()

	tokenStr, err := IssueToken(secret, id, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken(secret, tokenStr)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestTokenWrongSecret(t *testing.T) {
	tokenStr, err := IssueToken("secret-a", uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("secret-b", tokenStr)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	tokenStr, err := IssueToken("secret", uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", tokenStr)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	_, err := ParseToken("secret", "not-a-token")
	assert.Error(t, err)
}

func TestStoreCreateGetDelete(t *testing.T) {
	st := NewStore(time.Hour, zerolog.Nop())

	s := st.Create("prof", "958257", nil, 2*time.Minute)
	require.NotEqual(t, uuid.Nil, s.ID)

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	st.Delete(s.ID)
	_, ok = st.Get(s.ID)
	assert.False(t, ok)
}

func TestStoreGetUnknown(t *testing.T) {
	st := NewStore(time.Hour, zerolog.Nop())
	_, ok := st.Get(uuid.New())
	assert.False(t, ok)
}

func TestStoreEvictIdle(t *testing.T) {
	st := NewStore(10*time.Millisecond, zerolog.Nop())
	s := st.Create("prof", "958257", nil, 2*time.Minute)

	time.Sleep(30 * time.Millisecond)
	st.evictIdle()

	_, ok := st.Get(s.ID)
	assert.False(t, ok)
}

func TestStoreGetRefreshesIdleTimer(t *testing.T) {
	st := NewStore(50*time.Millisecond, zerolog.Nop())
	s := st.Create("prof", "958257", nil, 2*time.Minute)

	// Touch the session halfway through the TTL window, then evict after
	// the original deadline would have passed.
	time.Sleep(30 * time.Millisecond)
	_, ok := st.Get(s.ID)
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	st.evictIdle()

	_, ok = st.Get(s.ID)
	assert.True(t, ok)
}

func TestSessionStaleFlag(t *testing.T) {
	s := &Session{}

	// No report yet: MarkStale is a no-op.
	s.MarkStale()
	assert.Nil(t, s.Report())

	snap := &model.Snapshot{QuizID: "958257"}
	s.SetResult(snap, &model.Report{QuizID: "958257"})
	require.NotNil(t, s.Report())
	assert.False(t, s.Report().Stale)

	s.MarkStale()
	assert.True(t, s.Report().Stale)
	assert.Same(t, snap, s.Snapshot())
}

func TestMarkStaleLeavesIssuedReportsUntouched(t *testing.T) {
	s := &Session{}
	s.SetResult(&model.Snapshot{QuizID: "958257"}, &model.Report{QuizID: "958257"})

	issued := s.Report()
	require.NotNil(t, issued)
	s.MarkStale()

	// A report handed out before the failure keeps its view; only fresh
	// reads see the stale flag.
	assert.False(t, issued.Stale)
	assert.True(t, s.Report().Stale)

	// A new successful result clears staleness.
	s.SetResult(&model.Snapshot{QuizID: "958257"}, &model.Report{QuizID: "958257"})
	assert.False(t, s.Report().Stale)
}

func TestReportConcurrentWithStaleMarks(t *testing.T) {
	s := &Session{}
	s.SetResult(&model.Snapshot{QuizID: "958257"}, &model.Report{QuizID: "958257"})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.MarkStale()
			s.SetResult(&model.Snapshot{QuizID: "958257"}, &model.Report{QuizID: "958257"})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_, err := json.Marshal(s.Report())
			assert.NoError(t, err)
		}
	}()

	wg.Wait()
}

func TestDueForAutoSync(t *testing.T) {
	s := &Session{}
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	// Disabled: never due.
	assert.False(t, s.DueForAutoSync(now))

	s.SetAutoSync(true, 2*time.Minute)
	assert.True(t, s.DueForAutoSync(now))

	// Immediately after a run it is not due again.
	assert.False(t, s.DueForAutoSync(now.Add(30*time.Second)))
	assert.False(t, s.DueForAutoSync(now.Add(time.Minute)))

	// Once the interval elapses it fires once more.
	assert.True(t, s.DueForAutoSync(now.Add(2*time.Minute)))
	assert.False(t, s.DueForAutoSync(now.Add(2*time.Minute+time.Second)))
}
