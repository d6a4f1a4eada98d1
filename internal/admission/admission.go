// file: internal/admission/admission.go
// version: 1.2.0
// guid: 6a4b8c2d-7e9f-4a1b-8c3d-5e7f9a1b3c5d

// Package admission enforces per-user concurrency and daily download quotas.
package admission

import (
	"errors"
	"sync"
	"time"
)

// Rejection reasons, checked in order by TryAdmit.
var (
	ErrNotAuthorized    = errors.New("user not authorized")
	ErrConcurrencyLimit = errors.New("concurrent download limit reached")
	ErrDailyLimit       = errors.New("daily download limit reached")
)

// Token is a reservation against a user's limits for one download. Release
// it exactly once when the download reaches a terminal state; double release
// is tolerated.
type Token struct {
	userID   int64
	day      string
	released bool
}

// UserID returns the user the token was issued to.
func (t *Token) UserID() int64 { return t.userID }

// Ledger tracks active and daily download counts per user. All methods are
// safe for concurrent use.
type Ledger struct {
	mu            sync.Mutex
	active        map[int64]int
	daily         map[int64]map[string]int
	maxConcurrent int
	maxPerDay     int
	now           func() time.Time
}

// NewLedger creates a ledger with the given per-user limits.
func NewLedger(maxConcurrent, maxPerDay int) *Ledger {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if maxPerDay < 1 {
		maxPerDay = 1
	}
	return &Ledger{
		active:        make(map[int64]int),
		daily:         make(map[int64]map[string]int),
		maxConcurrent: maxConcurrent,
		maxPerDay:     maxPerDay,
		now:           time.Now,
	}
}

// TryAdmit reserves a download slot for the user. Checks run in order:
// authorization, concurrency, daily quota (admins bypass the daily quota).
// Counters are incremented before returning so a second request for the same
// user observes the reservation immediately.
func (l *Ledger) TryAdmit(userID int64, authorized, admin bool) (*Token, error) {
	if !authorized {
		return nil, ErrNotAuthorized
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active[userID] >= l.maxConcurrent {
		return nil, ErrConcurrencyLimit
	}

	day := l.now().Format("2006-01-02")
	if !admin && l.daily[userID][day] >= l.maxPerDay {
		return nil, ErrDailyLimit
	}

	l.active[userID]++
	if l.daily[userID] == nil {
		l.daily[userID] = make(map[string]int)
	}
	l.daily[userID][day]++

	return &Token{userID: userID, day: day}, nil
}

// Release returns the user's slot. The active counter is floored at zero and
// a token cannot be released twice.
func (l *Ledger) Release(tok *Token) {
	if tok == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if tok.released {
		return
	}
	tok.released = true

	if l.active[tok.userID] > 0 {
		l.active[tok.userID]--
	}
}

// Refund releases the slot and also undoes the daily-quota charge. Used when
// an admitted request never actually downloads (e.g. it parked waiting for a
// format selection).
func (l *Ledger) Refund(tok *Token) {
	if tok == nil {
		return
	}

	l.mu.Lock()
	released := tok.released
	if !released {
		tok.released = true
		if l.active[tok.userID] > 0 {
			l.active[tok.userID]--
		}
		if l.daily[tok.userID][tok.day] > 0 {
			l.daily[tok.userID][tok.day]--
		}
	}
	l.mu.Unlock()
}

// ActiveFor returns the user's current active download count.
func (l *Ledger) ActiveFor(userID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[userID]
}

// ActiveTotal returns the total number of active downloads.
func (l *Ledger) ActiveTotal() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, n := range l.active {
		total += n
	}
	return total
}

// Users returns the number of distinct users the ledger has seen today or
// has active downloads for.
func (l *Ledger) Users() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[int64]struct{}, len(l.daily))
	for id := range l.daily {
		seen[id] = struct{}{}
	}
	for id := range l.active {
		seen[id] = struct{}{}
	}
	return len(seen)
}
