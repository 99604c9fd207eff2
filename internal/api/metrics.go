package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics is the /metrics response.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	WebSocket     WSMetrics        `json:"websocket"`
	Telemetry     TelemetryMetrics `json:"telemetry"`
	Loop          LoopMetrics      `json:"loop"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int    `json:"connected_clients"`
	DroppedEvents    uint64 `json:"dropped_events"`
}

// TelemetryMetrics contains the telemetry queue counters.
type TelemetryMetrics struct {
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
}

// LoopMetrics contains control loop counters.
type LoopMetrics struct {
	Ticks          uint64 `json:"ticks"`
	PendingTimers  int    `json:"pending_timers"`
	TimerCapacity  int    `json:"timer_capacity"`
	ActiveTimeline string `json:"active_timeline,omitempty"`
}

const bytesPerMB = 1024 * 1024

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / bytesPerMB,
			MemoryTotalMB: float64(memStats.TotalAlloc) / bytesPerMB,
			NumGC:         memStats.NumGC,
		},
	}
	if s.hub != nil {
		m.WebSocket.ConnectedClients = s.hub.ClientCount()
		m.WebSocket.DroppedEvents = s.hub.Dropped()
	}
	if s.telemetry != nil {
		m.Telemetry.Delivered = s.telemetry.Delivered()
		m.Telemetry.Dropped = s.telemetry.Dropped()
	}
	if s.status != nil {
		snap := s.status.Snapshot()
		m.Loop = LoopMetrics{
			Ticks:          snap.Ticks,
			PendingTimers:  snap.Scheduler.Pending,
			TimerCapacity:  snap.Scheduler.Capacity,
			ActiveTimeline: snap.Scheduler.Active,
		}
	}

	writeJSON(w, http.StatusOK, m)
}
