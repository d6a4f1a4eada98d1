// file: internal/notify/notify.go
// version: 1.4.0
// guid: 7c5d9e1f-3a4b-4c6d-8e0f-2a4b6c8d0e2f

// Package notify throttles outbound status-message edits so progress
// reporting survives the messaging layer's flood control. Each message gets
// an independent throttle state; a process-wide floor additionally spaces
// edits across the whole bot.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MessageRef identifies an editable status message.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

func (r MessageRef) key() string {
	return fmt.Sprintf("%d_%d", r.ChatID, r.MessageID)
}

// ErrNotModified signals a no-op edit rejection from the messaging layer.
// The notifier treats it as success.
var ErrNotModified = errors.New("message not modified")

// FloodWaitError is the messaging layer's backpressure signal: stop sending
// for RetryAfter.
type FloodWaitError struct {
	RetryAfter time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait of %.0f seconds required", e.RetryAfter.Seconds())
}

// Editor edits a previously sent status message.
type Editor interface {
	EditText(ctx context.Context, ref MessageRef, text string) error
}

// Phase selects the throttle band. Upload edits are spaced more
// conservatively than download edits.
type Phase int

const (
	PhaseDownload Phase = iota
	PhaseUpload
)

type band struct {
	initial    time.Duration
	floor      time.Duration
	cap        time.Duration
	milestones []float64
}

var bands = map[Phase]band{
	PhaseDownload: {
		initial:    3 * time.Second,
		floor:      3 * time.Second,
		cap:        60 * time.Second,
		milestones: []float64{0, 25, 50, 75, 100},
	},
	PhaseUpload: {
		initial:    60 * time.Second,
		floor:      30 * time.Second,
		cap:        300 * time.Second,
		milestones: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	},
}

// milestoneTolerance is how close (in percent) a report must be to a
// milestone to qualify for an edit.
const milestoneTolerance = 2.0

// idleStateTTL bounds throttle-state memory: states untouched for this long
// are dropped.
const idleStateTTL = time.Hour

type throttleState struct {
	mu          sync.Mutex
	lastUpdate  time.Time
	lastPercent int
	minInterval time.Duration
	successes   int
	lastText    string
}

type stateEntry struct {
	state   *throttleState
	touched time.Time
}

// Notifier applies the throttle policy and the flood-wait backoff protocol
// around an Editor.
type Notifier struct {
	mu     sync.Mutex
	editor Editor
	states map[string]*stateEntry

	// global floor across all messages, protecting the single shared bot
	// connection from aggregate flood control
	global *rate.Limiter

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration)
	jitter func(min, max time.Duration) time.Duration
}

// New creates a Notifier around the given editor.
func New(editor Editor) *Notifier {
	return &Notifier{
		editor: editor,
		states: make(map[string]*stateEntry),
		global: rate.NewLimiter(rate.Every(3*time.Second), 1),
		now:    time.Now,
		sleep: func(ctx context.Context, d time.Duration) {
			select {
			case <-time.After(d):
			case <-ctx.Done():
			}
		},
		jitter: func(min, max time.Duration) time.Duration {
			return min + time.Duration(rand.Int63n(int64(max-min)+1))
		},
	}
}

// Report is called at high frequency with download/upload progress and
// decides itself whether an edit is actually emitted. It never returns an
// error: flood control is absorbed; other edit failures are logged and
// dropped.
func (n *Notifier) Report(ctx context.Context, ref MessageRef, phase Phase, label string, current, total int64, startedAt time.Time) {
	if total <= 0 {
		return
	}

	b := bands[phase]
	st := n.stateFor(ref, b)

	st.mu.Lock()
	defer st.mu.Unlock()

	now := n.now()
	elapsed := now.Sub(startedAt)
	if elapsed < time.Second {
		return
	}

	percent := float64(current) * 100 / float64(total)
	percentInt := int(percent)

	sinceLast := now.Sub(st.lastUpdate)
	if sinceLast < st.minInterval {
		return
	}

	shouldUpdate := false
	switch {
	case st.lastPercent == -1 || percentInt >= 99:
		// first and last updates always qualify once the interval floor holds
		shouldUpdate = true
	case atMilestone(percent, b.milestones) && percentInt > st.lastPercent:
		shouldUpdate = true
	}
	if !shouldUpdate {
		return
	}

	text := renderProgress(label, percent, current, total, elapsed)
	if text == st.lastText {
		return
	}

	if !n.global.Allow() {
		return
	}

	err := n.editor.EditText(ctx, ref, text)
	if err != nil && !errors.Is(err, ErrNotModified) {
		var flood *FloodWaitError
		if errors.As(err, &flood) {
			n.handleFloodWait(ctx, st, b, flood)
			err = n.editor.EditText(ctx, ref, text)
			if err != nil && !errors.Is(err, ErrNotModified) {
				// retry failed too; drop the update, the download continues
				log.Printf("[WARN] progress edit dropped after flood wait: %v", err)
				return
			}
		} else {
			log.Printf("[ERROR] failed to update progress message: %v", err)
			return
		}
	}

	st.lastUpdate = n.now()
	st.lastPercent = percentInt
	st.lastText = text
	st.successes++

	// sustained success slowly relaxes the interval back toward the floor
	if st.successes > 5 && st.minInterval > b.floor {
		st.minInterval -= 5 * time.Second
		if st.minInterval < b.floor {
			st.minInterval = b.floor
		}
	}

	n.collectIdle()
}

// handleFloodWait sleeps out the demanded wait plus a randomized safety
// buffer and permanently raises the message's interval (bounded by the band
// cap) so later updates self-throttle harder.
func (n *Notifier) handleFloodWait(ctx context.Context, st *throttleState, b band, flood *FloodWaitError) {
	wait := flood.RetryAfter
	log.Printf("[WARN] flood wait encountered: pausing %v before retry", wait)

	if wait > 0 {
		raised := wait + 30*time.Second
		if raised > st.minInterval {
			st.minInterval = raised
		}
	} else {
		st.minInterval *= 2
	}
	if st.minInterval > b.cap {
		st.minInterval = b.cap
	}
	st.successes = 0

	n.sleep(ctx, wait+n.jitter(15*time.Second, 30*time.Second))
}

// stateFor returns the throttle state for the message, creating it on first
// use.
func (n *Notifier) stateFor(ref MessageRef, b band) *throttleState {
	n.mu.Lock()
	defer n.mu.Unlock()

	entry, ok := n.states[ref.key()]
	if !ok {
		entry = &stateEntry{
			state: &throttleState{
				lastPercent: -1,
				minInterval: b.initial,
			},
		}
		n.states[ref.key()] = entry
	}
	entry.touched = n.now()
	return entry.state
}

// collectIdle drops throttle states untouched for longer than idleStateTTL.
func (n *Notifier) collectIdle() {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	for key, entry := range n.states {
		if now.Sub(entry.touched) > idleStateTTL {
			delete(n.states, key)
		}
	}
}

func atMilestone(percent float64, milestones []float64) bool {
	for _, m := range milestones {
		diff := percent - m
		if diff < 0 {
			diff = -diff
		}
		if diff < milestoneTolerance {
			return true
		}
	}
	return false
}

// renderProgress formats the status text for a progress edit.
func renderProgress(label string, percent float64, current, total int64, elapsed time.Duration) string {
	filled := int(percent / 5)
	if filled > 20 {
		filled = 20
	}
	bar := "[" + strings.Repeat("█", filled) + strings.Repeat("░", 20-filled) + "]"

	speed := float64(current) / elapsed.Seconds()
	eta := 0.0
	if speed > 0 {
		eta = float64(total-current) / speed
	}

	return fmt.Sprintf("%s\n\n%s %.1f%%\n⚡️ %s / %s\n🚀 %s/s\n⏱ %s",
		label, bar, percent,
		HumanBytes(current), HumanBytes(total),
		HumanBytes(int64(speed)),
		FormatDuration(time.Duration(eta)*time.Second))
}
