package runtime

import (
	"context"
	"log/slog"
	"time"

	"chat-client/observability"
)

// ReporterWorker periodically logs the session counters together with
// the client's own process metrics.
type ReporterWorker struct {
	log      *slog.Logger
	stats    *observability.SessionStats
	interval time.Duration
}

func NewReporterWorker(log *slog.Logger, stats *observability.SessionStats, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{log: log, stats: stats, interval: interval}
}

func (w *ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap := w.stats.GetLatest()
			w.log.Info("Session stats",
				"rooms", snap.RoomsLoaded,
				"history_fetches", snap.HistoryFetches,
				"stale_dropped", snap.StaleFetches,
				"inbound_applied", snap.InboundApplied,
				"inbound_dropped", snap.InboundDropped,
				"sent", snap.MessagesSent,
				"uploads", snap.Uploads,
				"rss_mb", snap.RSSBytes/1024/1024,
				"cpu_pct", snap.CPUPercent,
			)
		}
	}
}
