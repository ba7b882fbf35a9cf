// Package observability aggregates session counters for logging and the
// debug server.
package observability

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Snapshot is the point-in-time view served to the reporter worker and
// the debug endpoint.
type Snapshot struct {
	RoomsLoaded    uint64  `json:"rooms_loaded"`
	HistoryFetches uint64  `json:"history_fetches"`
	StaleFetches   uint64  `json:"stale_fetches_dropped"`
	InboundApplied uint64  `json:"inbound_applied"`
	InboundDropped uint64  `json:"inbound_dropped"`
	MessagesSent   uint64  `json:"messages_sent"`
	PersistErrors  uint64  `json:"persist_errors"`
	Uploads        uint64  `json:"uploads"`
	UploadedBytes  uint64  `json:"uploaded_bytes"`
	RSSBytes       uint64  `json:"rss_bytes"`
	CPUPercent     float64 `json:"cpu_percent"`
	At             string  `json:"at"`
}

// SessionStats carries atomic counters updated by the engine; reads
// never block writers.
type SessionStats struct {
	roomsLoaded    atomic.Uint64
	historyFetches atomic.Uint64
	staleFetches   atomic.Uint64
	inboundApplied atomic.Uint64
	inboundDropped atomic.Uint64
	messagesSent   atomic.Uint64
	persistErrors  atomic.Uint64
	uploads        atomic.Uint64
	uploadedBytes  atomic.Uint64

	proc *process.Process
}

func NewSessionStats() *SessionStats {
	// Best effort: if the process handle cannot be resolved the system
	// metrics stay at zero.
	p, _ := process.NewProcess(int32(os.Getpid()))
	return &SessionStats{proc: p}
}

func (s *SessionStats) SetRoomsLoaded(n int)    { s.roomsLoaded.Store(uint64(n)) }
func (s *SessionStats) IncrHistoryFetches()     { s.historyFetches.Add(1) }
func (s *SessionStats) IncrStaleFetches()       { s.staleFetches.Add(1) }
func (s *SessionStats) IncrInboundApplied()     { s.inboundApplied.Add(1) }
func (s *SessionStats) IncrInboundDropped()     { s.inboundDropped.Add(1) }
func (s *SessionStats) IncrMessagesSent()       { s.messagesSent.Add(1) }
func (s *SessionStats) IncrPersistErrors()      { s.persistErrors.Add(1) }
func (s *SessionStats) IncrUploads(bytes int)   { s.uploads.Add(1); s.uploadedBytes.Add(uint64(bytes)) }

// GetLatest assembles a snapshot, including self process metrics.
func (s *SessionStats) GetLatest() Snapshot {
	snap := Snapshot{
		RoomsLoaded:    s.roomsLoaded.Load(),
		HistoryFetches: s.historyFetches.Load(),
		StaleFetches:   s.staleFetches.Load(),
		InboundApplied: s.inboundApplied.Load(),
		InboundDropped: s.inboundDropped.Load(),
		MessagesSent:   s.messagesSent.Load(),
		PersistErrors:  s.persistErrors.Load(),
		Uploads:        s.uploads.Load(),
		UploadedBytes:  s.uploadedBytes.Load(),
		At:             time.Now().UTC().Format(time.RFC3339),
	}

	if s.proc != nil {
		if mem, err := s.proc.MemoryInfo(); err == nil {
			snap.RSSBytes = mem.RSS
		}
		if cpu, err := s.proc.CPUPercent(); err == nil {
			snap.CPUPercent = cpu
		}
	}
	return snap
}
