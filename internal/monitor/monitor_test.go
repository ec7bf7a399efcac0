package monitor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/classify"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/models"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/monitor"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/testhelpers"
)

// fakeChecker counts check cycles per URL and can block to simulate slow
// probes.
type fakeChecker struct {
	mu     sync.Mutex
	calls  map[string]int
	block  chan struct{}
	rec    models.StatusRecord
	recErr error
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{
		calls: make(map[string]int),
		rec:   models.StatusRecord{Status: models.StatusActive, Message: "File available"},
	}
}

func (f *fakeChecker) CheckStatus(_ context.Context, rawURL, _ string) (models.StatusRecord, error) {
	f.mu.Lock()
	f.calls[rawURL]++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return f.rec, f.recErr
}

func (f *fakeChecker) Classify(rawURL, hint string) classify.Classification {
	return classify.Classify(rawURL, hint)
}

func (f *fakeChecker) PreviewFailures(_ string) int { return 0 }

func (f *fakeChecker) callCount(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[rawURL]
}

// collectingSink records every delivered item.
type collectingSink struct {
	mu    sync.Mutex
	items []models.TrackedItem
}

func (s *collectingSink) Deliver(_ context.Context, item models.TrackedItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
}

func (s *collectingSink) delivered() []models.TrackedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TrackedItem(nil), s.items...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatchAndItems(t *testing.T) {
	m := monitor.New(newFakeChecker(), monitor.Config{CheckInterval: time.Hour}, testhelpers.NewTestLogger())

	require.NoError(t, m.Watch("https://b.example.com/clip.mp4", ""))
	require.NoError(t, m.Watch("https://a.example.com/index.m3u8", ""))

	items := m.Items()
	require.Len(t, items, 2)
	// Snapshot is sorted by URL.
	assert.Equal(t, "https://a.example.com/index.m3u8", items[0].URL)
	assert.Equal(t, models.CategoryStream, items[0].Category)
	assert.Equal(t, "https://b.example.com/clip.mp4", items[1].URL)
	assert.Equal(t, models.CategoryVideo, items[1].Category)
}

func TestWatchRejectsInvalidURL(t *testing.T) {
	m := monitor.New(newFakeChecker(), monitor.Config{CheckInterval: time.Hour}, testhelpers.NewTestLogger())

	assert.ErrorIs(t, m.Watch("", ""), models.ErrInvalidInput)
	assert.ErrorIs(t, m.Watch("no-scheme", ""), models.ErrInvalidInput)
	assert.Empty(t, m.Items())
}

func TestRewatchUpdatesHint(t *testing.T) {
	m := monitor.New(newFakeChecker(), monitor.Config{CheckInterval: time.Hour}, testhelpers.NewTestLogger())
	url := "https://example.com/asset"

	require.NoError(t, m.Watch(url, ""))
	require.NoError(t, m.Watch(url, "mp4"))

	items := m.Items()
	require.Len(t, items, 1, "re-watching must not duplicate the entry")
	assert.Equal(t, models.CategoryVideo, items[0].Category)
}

func TestUnwatch(t *testing.T) {
	m := monitor.New(newFakeChecker(), monitor.Config{CheckInterval: time.Hour}, testhelpers.NewTestLogger())
	url := "https://example.com/clip.mp4"

	require.NoError(t, m.Watch(url, ""))
	assert.True(t, m.Unwatch(url))
	assert.False(t, m.Unwatch(url), "second unwatch must report not found")
	assert.False(t, m.Watching(url))
}

func TestStopAll(t *testing.T) {
	m := monitor.New(newFakeChecker(), monitor.Config{CheckInterval: time.Hour}, testhelpers.NewTestLogger())

	require.NoError(t, m.Watch("https://a.example.com/1.mp4", ""))
	require.NoError(t, m.Watch("https://b.example.com/2.mp4", ""))

	assert.Equal(t, 2, m.StopAll())
	assert.Empty(t, m.Items())
	assert.Equal(t, 0, m.StopAll())
}

func TestMonitorChecksAndDelivers(t *testing.T) {
	checker := newFakeChecker()
	sink := &collectingSink{}
	m := monitor.New(checker, monitor.Config{CheckInterval: 20 * time.Millisecond}, testhelpers.NewTestLogger(), sink)
	url := "https://cdn.example.com/clip.mp4"

	require.NoError(t, m.Watch(url, ""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	waitFor(t, 2*time.Second, func() bool { return len(sink.delivered()) >= 2 })

	items := sink.delivered()
	assert.Equal(t, url, items[0].URL)
	require.NotNil(t, items[0].LastStatus)
	assert.Equal(t, models.StatusActive, items[0].LastStatus.Status)
	assert.False(t, items[0].LastCheckedAt.IsZero())
}

func TestMonitorNoOverlappingCyclesPerItem(t *testing.T) {
	checker := newFakeChecker()
	checker.block = make(chan struct{})
	m := monitor.New(checker, monitor.Config{CheckInterval: 10 * time.Millisecond}, testhelpers.NewTestLogger())
	url := "https://cdn.example.com/slow.mp4"

	require.NoError(t, m.Watch(url, ""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	// Let several ticks pass while the first cycle is still blocked.
	waitFor(t, 2*time.Second, func() bool { return checker.callCount(url) >= 1 })
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, checker.callCount(url), "a blocked item must never run concurrent cycles")

	close(checker.block)
	m.Stop()
}

func TestMonitorDistinctItemsRunConcurrently(t *testing.T) {
	checker := newFakeChecker()
	checker.block = make(chan struct{})
	m := monitor.New(checker, monitor.Config{CheckInterval: 10 * time.Millisecond}, testhelpers.NewTestLogger())

	require.NoError(t, m.Watch("https://a.example.com/1.mp4", ""))
	require.NoError(t, m.Watch("https://b.example.com/2.mp4", ""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	// Both items start their first cycle even though neither completes.
	waitFor(t, 2*time.Second, func() bool {
		return checker.callCount("https://a.example.com/1.mp4") == 1 &&
			checker.callCount("https://b.example.com/2.mp4") == 1
	})

	close(checker.block)
	m.Stop()
}

func TestMonitorDeliversAfterUnwatchMidFlight(t *testing.T) {
	checker := newFakeChecker()
	checker.block = make(chan struct{})
	sink := &collectingSink{}
	m := monitor.New(checker, monitor.Config{CheckInterval: 10 * time.Millisecond}, testhelpers.NewTestLogger(), sink)
	url := "https://cdn.example.com/clip.mp4"

	require.NoError(t, m.Watch(url, ""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	waitFor(t, 2*time.Second, func() bool { return checker.callCount(url) == 1 })
	require.True(t, m.Unwatch(url))
	close(checker.block)
	m.Stop()

	// The in-flight cycle completed and its record was still delivered.
	items := sink.delivered()
	require.NotEmpty(t, items)
	assert.Equal(t, url, items[0].URL)
	require.NotNil(t, items[0].LastStatus)
}

func TestMonitorErrorBecomesErrorRecord(t *testing.T) {
	checker := newFakeChecker()
	checker.recErr = assert.AnError
	sink := &collectingSink{}
	m := monitor.New(checker, monitor.Config{CheckInterval: 10 * time.Millisecond}, testhelpers.NewTestLogger(), sink)

	require.NoError(t, m.Watch("https://cdn.example.com/clip.mp4", ""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	waitFor(t, 2*time.Second, func() bool { return len(sink.delivered()) >= 1 })
	m.Stop()

	rec := sink.delivered()[0].LastStatus
	require.NotNil(t, rec)
	assert.Equal(t, models.StatusError, rec.Status)
}

func TestLogSinkIgnoresItemsWithoutStatus(t *testing.T) {
	sink := monitor.NewLogSink(testhelpers.NewTestLogger())
	sink.Deliver(context.Background(), models.TrackedItem{URL: "https://example.com/x"})

	rec := models.ErrorRecord("File unavailable")
	sink.Deliver(context.Background(), models.TrackedItem{
		URL:             "https://example.com/x",
		LastStatus:      &rec,
		PreviewFailures: 2,
	})
}

func TestMonitorStartStopIdempotent(t *testing.T) {
	m := monitor.New(newFakeChecker(), monitor.Config{CheckInterval: time.Hour}, testhelpers.NewTestLogger())

	ctx := context.Background()
	m.Start(ctx)
	m.Start(ctx)
	m.Stop()
	m.Stop()
}
