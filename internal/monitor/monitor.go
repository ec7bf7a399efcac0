// Package monitor owns the watch-list and drives the per-item check cycle:
// classify, probe, and preview generation, fanning results out to status
// sinks. Each item runs at most one cycle at a time; distinct items are
// checked concurrently.
package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/classify"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/media"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/models"
)

const (
	defaultCheckInterval = 5 * time.Second
	minTick              = 100 * time.Millisecond
)

// Checker runs one check cycle for a URL. Implemented by media.Service.
type Checker interface {
	CheckStatus(ctx context.Context, rawURL, hint string) (models.StatusRecord, error)
	Classify(rawURL, hint string) classify.Classification
	PreviewFailures(rawURL string) int
}

// Sink consumes the StatusRecord produced by each completed check cycle.
type Sink interface {
	Deliver(ctx context.Context, item models.TrackedItem)
}

// entry wraps a tracked item with its scheduling state. inFlight guarantees
// a single item is never checked concurrently with itself.
type entry struct {
	item     models.TrackedItem
	inFlight bool
	fromFile bool
}

// Config holds monitor options.
type Config struct {
	// CheckInterval is the per-item cadence: an item is due when at least
	// this much time has passed since its last completed check.
	CheckInterval time.Duration
}

// Monitor is the watch-list scheduler.
type Monitor struct {
	checker  Checker
	log      logger.Logger
	sinks    []Sink
	interval time.Duration

	mu    sync.Mutex
	items map[string]*entry

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	stateMu  sync.Mutex
}

// New creates a monitor. Sinks are invoked in order after every cycle.
func New(checker Checker, cfg Config, log logger.Logger, sinks ...Sink) *Monitor {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = defaultCheckInterval
	}
	return &Monitor{
		checker:  checker,
		log:      log,
		sinks:    sinks,
		interval: cfg.CheckInterval,
		items:    make(map[string]*entry),
		stopChan: make(chan struct{}),
	}
}

// Watch adds a URL to the watch-list. Re-watching an existing URL updates
// its declared type but keeps its state.
func (m *Monitor) Watch(rawURL, hint string) error {
	return m.watch(rawURL, hint, false)
}

func (m *Monitor) watch(rawURL, hint string, fromFile bool) error {
	if err := media.ValidateURL(rawURL); err != nil {
		return err
	}

	cls := m.checker.Classify(rawURL, hint)

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.items[rawURL]; ok {
		e.item.DeclaredType = hint
		e.item.Category = cls.Category
		e.fromFile = e.fromFile || fromFile
		return nil
	}

	m.items[rawURL] = &entry{
		item: models.TrackedItem{
			URL:          rawURL,
			DeclaredType: hint,
			Category:     cls.Category,
		},
		fromFile: fromFile,
	}
	m.log.Info("watching media URL",
		logger.String("url", rawURL),
		logger.String("category", string(cls.Category)),
	)
	return nil
}

// Unwatch removes a URL from the watch-list. An in-flight cycle for the URL
// is not interrupted; it completes and its record is still delivered.
func (m *Monitor) Unwatch(rawURL string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[rawURL]; !ok {
		return false
	}
	delete(m.items, rawURL)
	m.log.Info("unwatched media URL", logger.String("url", rawURL))
	return true
}

// StopAll clears the entire watch-list. In-flight cycles complete normally.
func (m *Monitor) StopAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := len(m.items)
	m.items = make(map[string]*entry)
	m.log.Info("cleared watch-list", logger.Int("items", count))
	return count
}

// Items returns a snapshot of the watch-list, sorted by URL.
func (m *Monitor) Items() []models.TrackedItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]models.TrackedItem, 0, len(m.items))
	for _, e := range m.items {
		item := e.item
		item.PreviewFailures = m.checker.PreviewFailures(item.URL)
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].URL < items[j].URL })
	return items
}

// Watching reports whether a URL is currently tracked.
func (m *Monitor) Watching(rawURL string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[rawURL]
	return ok
}

// Start begins the polling loop.
func (m *Monitor) Start(ctx context.Context) {
	m.stateMu.Lock()
	if m.started {
		m.stateMu.Unlock()
		return
	}
	m.started = true
	m.stateMu.Unlock()

	m.wg.Add(1)
	go m.run(ctx)

	m.log.Info("media monitor started",
		logger.Duration("check_interval", m.interval),
	)
}

// Stop halts the polling loop and waits for in-flight cycles to complete.
func (m *Monitor) Stop() {
	m.stateMu.Lock()
	if !m.started {
		m.stateMu.Unlock()
		return
	}
	m.started = false
	m.stateMu.Unlock()

	close(m.stopChan)
	m.wg.Wait()
	m.log.Info("media monitor stopped")
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	// Tick faster than the cadence so staggered items are picked up close
	// to their due time.
	tick := m.interval / 2
	if tick < minTick {
		tick = minTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	// Check immediately on start.
	m.checkDue(ctx)

	for {
		select {
		case <-ticker.C:
			m.checkDue(ctx)
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// checkDue starts one cycle for every due item that has no cycle in flight.
func (m *Monitor) checkDue(ctx context.Context) {
	now := time.Now()

	m.mu.Lock()
	due := make([]*models.TrackedItem, 0)
	for _, e := range m.items {
		if e.inFlight {
			continue
		}
		if !e.item.LastCheckedAt.IsZero() && now.Sub(e.item.LastCheckedAt) < m.interval {
			continue
		}
		e.inFlight = true
		item := e.item
		due = append(due, &item)
	}
	m.mu.Unlock()

	for _, item := range due {
		m.wg.Add(1)
		go func(url, hint string) {
			defer m.wg.Done()
			m.runCycle(ctx, url, hint)
		}(item.URL, item.DeclaredType)
	}
}

// runCycle executes one classify-probe-generate pass for a URL and delivers
// the result. Everything below this boundary resolves to a StatusRecord;
// the cycle itself cannot fail.
func (m *Monitor) runCycle(ctx context.Context, rawURL, hint string) {
	rec, err := m.checker.CheckStatus(ctx, rawURL, hint)
	if err != nil {
		rec = models.ErrorRecord(err.Error())
	}
	now := time.Now()

	m.mu.Lock()
	snapshot := models.TrackedItem{
		URL:          rawURL,
		DeclaredType: hint,
	}
	if e, ok := m.items[rawURL]; ok {
		e.item.LastStatus = &rec
		e.item.LastCheckedAt = now
		e.item.PreviewFailures = m.checker.PreviewFailures(rawURL)
		e.inFlight = false
		snapshot = e.item
	} else {
		// Unwatched while the cycle was in flight; the record is still
		// delivered, only the watch-list state is gone.
		snapshot.LastStatus = &rec
		snapshot.LastCheckedAt = now
	}
	m.mu.Unlock()

	for _, sink := range m.sinks {
		sink.Deliver(ctx, snapshot)
	}
}
