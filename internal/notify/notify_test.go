// file: internal/notify/notify_test.go
// version: 1.2.1
// guid: 4d6e8f0a-2b4c-4d6e-9f1a-3b5c7d9e1f2a

package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeEditor struct {
	edits []string
	errs  []error // consumed per call; nil once exhausted
	slept []time.Duration
}

func (f *fakeEditor) EditText(ctx context.Context, ref MessageRef, text string) error {
	f.edits = append(f.edits, text)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

// newTestNotifier returns a notifier wired to a fake editor with a
// controllable clock and no real sleeping or global throttling.
func newTestNotifier(ed *fakeEditor, clock *time.Time) *Notifier {
	n := New(ed)
	n.global = rate.NewLimiter(rate.Inf, 1)
	n.now = func() time.Time { return *clock }
	n.sleep = func(ctx context.Context, d time.Duration) { ed.slept = append(ed.slept, d) }
	n.jitter = func(min, max time.Duration) time.Duration { return min }
	return n
}

func TestReportEmitsFirstAndMilestones(t *testing.T) {
	t.Parallel()

	ed := &fakeEditor{}
	clock := time.Unix(10000, 0)
	n := newTestNotifier(ed, &clock)

	ref := MessageRef{ChatID: 1, MessageID: 2}
	started := clock.Add(-10 * time.Second)

	n.Report(context.Background(), ref, PhaseDownload, "📥 Downloading", 0, 1000, started)
	require.Len(t, ed.edits, 1, "first update always emits")

	// 10% is not a download milestone
	clock = clock.Add(10 * time.Second)
	n.Report(context.Background(), ref, PhaseDownload, "📥 Downloading", 100, 1000, started)
	assert.Len(t, ed.edits, 1)

	// 25% is
	clock = clock.Add(10 * time.Second)
	n.Report(context.Background(), ref, PhaseDownload, "📥 Downloading", 250, 1000, started)
	assert.Len(t, ed.edits, 2)

	// 99%+ always qualifies
	clock = clock.Add(10 * time.Second)
	n.Report(context.Background(), ref, PhaseDownload, "📥 Downloading", 999, 1000, started)
	assert.Len(t, ed.edits, 3)
}

func TestReportRespectsMinInterval(t *testing.T) {
	t.Parallel()

	ed := &fakeEditor{}
	clock := time.Unix(10000, 0)
	n := newTestNotifier(ed, &clock)

	ref := MessageRef{ChatID: 1, MessageID: 2}
	started := clock.Add(-10 * time.Second)

	n.Report(context.Background(), ref, PhaseDownload, "dl", 0, 1000, started)
	require.Len(t, ed.edits, 1)

	// 25% milestone but only 1s after the last edit: suppressed
	clock = clock.Add(1 * time.Second)
	n.Report(context.Background(), ref, PhaseDownload, "dl", 250, 1000, started)
	assert.Len(t, ed.edits, 1)

	// same milestone once the interval has elapsed: emitted
	clock = clock.Add(5 * time.Second)
	n.Report(context.Background(), ref, PhaseDownload, "dl", 250, 1000, started)
	assert.Len(t, ed.edits, 2)
}

func TestReportSuppressesIdenticalText(t *testing.T) {
	t.Parallel()

	ed := &fakeEditor{}
	clock := time.Unix(10000, 0)
	n := newTestNotifier(ed, &clock)

	ref := MessageRef{ChatID: 1, MessageID: 2}
	started := clock.Add(-10 * time.Second)

	n.Report(context.Background(), ref, PhaseDownload, "dl", 0, 1000, started)
	require.Len(t, ed.edits, 1)

	// force lastPercent back so the same render would qualify again
	st := n.stateFor(ref, bands[PhaseDownload])
	st.lastPercent = -1
	st.lastUpdate = clock.Add(-time.Hour)

	n.Report(context.Background(), ref, PhaseDownload, "dl", 0, 1000, started)
	assert.Len(t, ed.edits, 1, "identical rendered text must not be re-sent")
}

func TestReportZeroTotalIgnored(t *testing.T) {
	t.Parallel()

	ed := &fakeEditor{}
	clock := time.Unix(10000, 0)
	n := newTestNotifier(ed, &clock)

	n.Report(context.Background(), MessageRef{1, 2}, PhaseDownload, "dl", 100, 0, clock.Add(-10*time.Second))
	assert.Empty(t, ed.edits)
}

func TestFloodWaitRaisesIntervalAndRetriesOnce(t *testing.T) {
	t.Parallel()

	ed := &fakeEditor{errs: []error{&FloodWaitError{RetryAfter: 42 * time.Second}}}
	clock := time.Unix(10000, 0)
	n := newTestNotifier(ed, &clock)

	ref := MessageRef{ChatID: 1, MessageID: 2}
	started := clock.Add(-10 * time.Second)

	n.Report(context.Background(), ref, PhaseUpload, "📤 Uploading", 0, 1000, started)

	// first attempt hit flood control, retry succeeded
	require.Len(t, ed.edits, 2)
	require.Len(t, ed.slept, 1)
	assert.Equal(t, 42*time.Second+15*time.Second, ed.slept[0], "sleeps the demanded wait plus the safety buffer")

	st := n.stateFor(ref, bands[PhaseUpload])
	assert.Equal(t, 72*time.Second, st.minInterval, "interval permanently raised to wait+30s")
}

func TestFloodWaitIntervalBoundedByCap(t *testing.T) {
	t.Parallel()

	ed := &fakeEditor{errs: []error{&FloodWaitError{RetryAfter: 600 * time.Second}}}
	clock := time.Unix(10000, 0)
	n := newTestNotifier(ed, &clock)

	ref := MessageRef{ChatID: 1, MessageID: 2}
	n.Report(context.Background(), ref, PhaseUpload, "up", 0, 1000, clock.Add(-10*time.Second))

	st := n.stateFor(ref, bands[PhaseUpload])
	assert.Equal(t, 300*time.Second, st.minInterval)
}

func TestFloodWaitRetryFailureDropsUpdate(t *testing.T) {
	t.Parallel()

	ed := &fakeEditor{errs: []error{
		&FloodWaitError{RetryAfter: 5 * time.Second},
		&FloodWaitError{RetryAfter: 5 * time.Second},
	}}
	clock := time.Unix(10000, 0)
	n := newTestNotifier(ed, &clock)

	ref := MessageRef{ChatID: 1, MessageID: 2}
	// must not panic and must not record a success
	n.Report(context.Background(), ref, PhaseUpload, "up", 0, 1000, clock.Add(-10*time.Second))

	st := n.stateFor(ref, bands[PhaseUpload])
	assert.Equal(t, -1, st.lastPercent, "dropped update leaves state unrecorded")
}

func TestNotModifiedTreatedAsSuccess(t *testing.T) {
	t.Parallel()

	ed := &fakeEditor{errs: []error{ErrNotModified}}
	clock := time.Unix(10000, 0)
	n := newTestNotifier(ed, &clock)

	ref := MessageRef{ChatID: 1, MessageID: 2}
	n.Report(context.Background(), ref, PhaseDownload, "dl", 0, 1000, clock.Add(-10*time.Second))

	st := n.stateFor(ref, bands[PhaseDownload])
	assert.Equal(t, 0, st.lastPercent)
	assert.Empty(t, ed.slept)
}

func TestIdleStateCollected(t *testing.T) {
	t.Parallel()

	ed := &fakeEditor{}
	clock := time.Unix(10000, 0)
	n := newTestNotifier(ed, &clock)

	oldRef := MessageRef{ChatID: 1, MessageID: 1}
	started := clock.Add(-10 * time.Second)
	n.Report(context.Background(), oldRef, PhaseDownload, "dl", 0, 1000, started)

	clock = clock.Add(2 * time.Hour)
	newRef := MessageRef{ChatID: 1, MessageID: 2}
	n.Report(context.Background(), newRef, PhaseDownload, "dl", 0, 1000, clock.Add(-10*time.Second))

	n.mu.Lock()
	defer n.mu.Unlock()
	_, oldExists := n.states[oldRef.key()]
	assert.False(t, oldExists, "idle state collected after TTL")
	assert.Len(t, n.states, 1)
}

func TestHumanBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0 B", HumanBytes(0))
	assert.Equal(t, "512.00 B", HumanBytes(512))
	assert.Equal(t, "1.00 KB", HumanBytes(1024))
	assert.Equal(t, "1.50 MB", HumanBytes(1536*1024))
	assert.Equal(t, "2.00 GB", HumanBytes(2*1024*1024*1024))
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "45 seconds", FormatDuration(45*time.Second))
	// %.0f rounds half to even, so 2.5 minutes renders as 2
	assert.Equal(t, "2 minutes", FormatDuration(150*time.Second))
	assert.Equal(t, "1.5 hours", FormatDuration(90*time.Minute))
}
