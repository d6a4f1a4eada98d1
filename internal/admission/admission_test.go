// file: internal/admission/admission_test.go
// version: 1.1.0
// guid: 9b1c3d5e-7f8a-4b2c-9d0e-3f5a7b9c1d2e

package admission

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAdmitConcurrencyLimit(t *testing.T) {
	t.Parallel()

	l := NewLedger(2, 10)

	tok1, err := l.TryAdmit(1, true, false)
	require.NoError(t, err)
	tok2, err := l.TryAdmit(1, true, false)
	require.NoError(t, err)

	// Third concurrent download for the same user is rejected
	_, err = l.TryAdmit(1, true, false)
	assert.True(t, errors.Is(err, ErrConcurrencyLimit))

	// A different user still has capacity
	_, err = l.TryAdmit(2, true, false)
	assert.NoError(t, err)

	// Releasing a slot lets the user back in
	l.Release(tok1)
	_, err = l.TryAdmit(1, true, false)
	assert.NoError(t, err)

	l.Release(tok2)
}

func TestTryAdmitDailyLimit(t *testing.T) {
	t.Parallel()

	l := NewLedger(100, 3)

	for i := 0; i < 3; i++ {
		tok, err := l.TryAdmit(1, true, false)
		require.NoError(t, err)
		l.Release(tok)
	}

	_, err := l.TryAdmit(1, true, false)
	assert.True(t, errors.Is(err, ErrDailyLimit))

	// Admins bypass the daily quota
	_, err = l.TryAdmit(1, true, true)
	assert.NoError(t, err)
}

func TestDailyLimitResetsAtRollover(t *testing.T) {
	t.Parallel()

	l := NewLedger(100, 1)
	current := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	tok, err := l.TryAdmit(1, true, false)
	require.NoError(t, err)
	l.Release(tok)

	_, err = l.TryAdmit(1, true, false)
	require.True(t, errors.Is(err, ErrDailyLimit))

	// Two minutes later it is a new day with a fresh bucket
	current = time.Date(2025, 3, 2, 0, 1, 0, 0, time.UTC)
	_, err = l.TryAdmit(1, true, false)
	assert.NoError(t, err)
}

func TestTryAdmitNotAuthorized(t *testing.T) {
	t.Parallel()

	l := NewLedger(2, 10)
	_, err := l.TryAdmit(1, false, false)
	assert.True(t, errors.Is(err, ErrNotAuthorized))
	assert.Equal(t, 0, l.ActiveFor(1))
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	l := NewLedger(2, 10)
	tok, err := l.TryAdmit(1, true, false)
	require.NoError(t, err)
	assert.Equal(t, 1, l.ActiveFor(1))

	l.Release(tok)
	l.Release(tok) // double release must not go negative
	assert.Equal(t, 0, l.ActiveFor(1))

	l.Release(nil) // nil token tolerated
}

func TestRefundUndoesDailyCharge(t *testing.T) {
	t.Parallel()

	l := NewLedger(100, 1)

	tok, err := l.TryAdmit(1, true, false)
	require.NoError(t, err)
	l.Refund(tok)

	// The refunded charge frees up the day's quota again
	_, err = l.TryAdmit(1, true, false)
	assert.NoError(t, err)
}

func TestLedgerCounters(t *testing.T) {
	t.Parallel()

	l := NewLedger(10, 10)
	tokA, _ := l.TryAdmit(1, true, false)
	tokB, _ := l.TryAdmit(2, true, false)
	tokC, _ := l.TryAdmit(2, true, false)

	assert.Equal(t, 3, l.ActiveTotal())
	assert.Equal(t, 2, l.Users())

	l.Release(tokA)
	l.Release(tokB)
	l.Release(tokC)
	assert.Equal(t, 0, l.ActiveTotal())
	// Users remain counted for the day after their downloads finish
	assert.Equal(t, 2, l.Users())
}

func TestRecentURLCache(t *testing.T) {
	t.Parallel()

	current := time.Unix(1000, 0)
	c := NewRecentURLCache()
	c.now = func() time.Time { return current }

	url := "https://example.com/video.mp4"

	assert.False(t, c.SeenRecently(url), "first submission passes")
	assert.True(t, c.SeenRecently(url), "immediate resubmission suppressed")

	current = current.Add(29 * time.Second)
	assert.True(t, c.SeenRecently(url), "still inside 30s window")

	current = current.Add(45 * time.Second)
	assert.False(t, c.SeenRecently(url), "after window a new submission passes")
}

func TestRecentURLCacheGC(t *testing.T) {
	t.Parallel()

	current := time.Unix(1000, 0)
	c := NewRecentURLCache()
	c.now = func() time.Time { return current }

	c.SeenRecently("https://a.example/1")
	c.SeenRecently("https://a.example/2")

	// 61 seconds later the old entries are collected on the next access
	current = current.Add(61 * time.Second)
	c.SeenRecently("https://a.example/3")

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.seen, 1)
}
