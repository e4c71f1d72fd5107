// Package live maintains a periodically refreshed snapshot of the
// report aggregation for the dashboard chart.
package live

import (
	"context"
	"sync"
	"time"

	"github.com/snyce/visitgate/internal/visit/models"
	"github.com/snyce/visitgate/internal/visit/report"
	"go.uber.org/zap"
)

// Source supplies the raw records a refresh aggregates over.
type Source interface {
	FetchHistory(ctx context.Context) ([]models.Visit, error)
	FetchCompanies(ctx context.Context) ([]models.Company, error)
}

// Snapshot is the last-good aggregated view. Connected turns true on
// the first successful refresh and keeps its last value on later
// failures: a failed refresh never clears previously displayed data.
type Snapshot struct {
	Stats     report.Stats       `json:"stats"`
	Chart     report.ChartSeries `json:"chart"`
	Connected bool               `json:"connected"`
	FetchedAt time.Time          `json:"fetchedAt"`
}

// Feed re-runs the aggregation at a fixed interval until stopped.
type Feed struct {
	source   Source
	engine   *report.Engine
	interval time.Duration
	logger   *zap.Logger

	mu       sync.RWMutex
	snapshot Snapshot

	cancel context.CancelFunc
	done   chan struct{}
}

// NewFeed constructs a Feed refreshing every interval (30s when zero).
func NewFeed(source Source, engine *report.Engine, interval time.Duration, logger *zap.Logger) *Feed {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Feed{
		source:   source,
		engine:   engine,
		interval: interval,
		logger:   logger.Named("live_feed"),
	}
}

// Start performs one immediate refresh, then repeats at the configured
// interval until Stop is called or ctx is cancelled.
func (f *Feed) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})

	go func() {
		defer close(f.done)
		f.refresh(ctx)

		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				f.refresh(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the refresh loop and waits for any in-flight refresh to
// finish. No refresh runs after it returns; calling it twice is safe.
func (f *Feed) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
}

// Snapshot returns the last-good view.
func (f *Feed) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot
}

func (f *Feed) refresh(ctx context.Context) {
	visits, err := f.source.FetchHistory(ctx)
	if err != nil {
		f.logger.Warn("live refresh failed, keeping last snapshot", zap.Error(err))
		return
	}
	companies, err := f.source.FetchCompanies(ctx)
	if err != nil {
		f.logger.Warn("live refresh failed, keeping last snapshot", zap.Error(err))
		return
	}

	f.mu.Lock()
	f.snapshot = Snapshot{
		Stats:     f.engine.Stats(visits),
		Chart:     f.engine.Chart(visits, companies),
		Connected: true,
		FetchedAt: time.Now(),
	}
	f.mu.Unlock()
}
