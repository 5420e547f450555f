package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/types"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Source metrics
	FetchesTotal      int64
	FetchErrorsTotal  int64
	CacheHitsTotal    int64
	CacheMissesTotal  int64
	lastFetchDuration time.Duration

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	WebSocketMessagesTotal       int64
	WebSocketErrorsTotal         int64
	activeConnections            int64

	// Refresh metrics
	RefreshCyclesTotal    int64
	NoticesBroadcastTotal int64
	RefreshErrorsTotal    int64
	lastRefreshDuration   time.Duration

	// View metrics
	ViewsCreatedTotal int64
	ViewsEvictedTotal int64
	IdentityFailOpens int64
	activeViews       int
	alertsByRule      map[string]int
	recordsByShift    map[string]int
	totalRecords      int
	totalDrops        float64

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			alertsByRule:         make(map[string]int),
			recordsByShift:       make(map[string]int),
			httpRequestsTotal:    make(map[string]map[int]int64),
			httpRequestDurations: make(map[string][]float64),
			startTime:            time.Now(),
		}
	})
	return instance
}

// RecordFetch records one upstream fetch
func (m *Metrics) RecordFetch(duration time.Duration, err error) {
	m.mu.Lock()
	m.FetchesTotal++
	if err != nil {
		m.FetchErrorsTotal++
	}
	m.lastFetchDuration = duration
	m.mu.Unlock()
}

// RecordCacheHit increments the row cache hit counter
func (m *Metrics) RecordCacheHit() {
	m.mu.Lock()
	m.CacheHitsTotal++
	m.mu.Unlock()
}

// RecordCacheMiss increments the row cache miss counter
func (m *Metrics) RecordCacheMiss() {
	m.mu.Lock()
	m.CacheMissesTotal++
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordWebSocketMessage increments message counter
func (m *Metrics) RecordWebSocketMessage() {
	m.mu.Lock()
	m.WebSocketMessagesTotal++
	m.mu.Unlock()
}

// RecordWebSocketError increments WebSocket error counter
func (m *Metrics) RecordWebSocketError() {
	m.mu.Lock()
	m.WebSocketErrorsTotal++
	m.mu.Unlock()
}

// RecordRefreshCycle records a background refresh
func (m *Metrics) RecordRefreshCycle(duration time.Duration, notices int) {
	m.mu.Lock()
	m.RefreshCyclesTotal++
	m.NoticesBroadcastTotal += int64(notices)
	m.lastRefreshDuration = duration
	m.mu.Unlock()
}

// RecordRefreshError increments the refresh error counter
func (m *Metrics) RecordRefreshError() {
	m.mu.Lock()
	m.RefreshErrorsTotal++
	m.mu.Unlock()
}

// RecordViewCreated increments the created views counter
func (m *Metrics) RecordViewCreated() {
	m.mu.Lock()
	m.ViewsCreatedTotal++
	m.mu.Unlock()
}

// RecordViewsEvicted adds evicted idle views
func (m *Metrics) RecordViewsEvicted(n int) {
	m.mu.Lock()
	m.ViewsEvictedTotal += int64(n)
	m.mu.Unlock()
}

// SetActiveViews sets the live view gauge
func (m *Metrics) SetActiveViews(n int) {
	m.mu.Lock()
	m.activeViews = n
	m.mu.Unlock()
}

// RecordIdentityFailOpen counts pipeline passes that skipped the identity filter
func (m *Metrics) RecordIdentityFailOpen() {
	m.mu.Lock()
	m.IdentityFailOpens++
	m.mu.Unlock()
}

// UpdateRecordStats updates the dataset distribution gauges
func (m *Metrics) UpdateRecordStats(records []types.DropRecord, alerts []types.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recordsByShift = make(map[string]int)
	m.alertsByRule = make(map[string]int)
	m.totalRecords = len(records)
	m.totalDrops = 0

	for _, r := range records {
		shift := r.Shift
		if shift == "" {
			shift = "Unknown"
		}
		m.recordsByShift[shift]++
		m.totalDrops += r.TotalDrops
	}
	for _, a := range alerts {
		m.alertsByRule[a.Rule]++
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations for percentile calculation
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		write("dropboard_uptime_seconds", time.Since(m.startTime).Seconds())

		write("dropboard_fetches_total", m.FetchesTotal)
		write("dropboard_fetch_errors_total", m.FetchErrorsTotal)
		write("dropboard_fetch_duration_seconds", m.lastFetchDuration.Seconds())
		write("dropboard_cache_hits_total", m.CacheHitsTotal)
		write("dropboard_cache_misses_total", m.CacheMissesTotal)

		write("dropboard_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("dropboard_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("dropboard_websocket_active_connections", m.activeConnections)
		write("dropboard_websocket_messages_total", m.WebSocketMessagesTotal)
		write("dropboard_websocket_errors_total", m.WebSocketErrorsTotal)

		write("dropboard_refresh_cycles_total", m.RefreshCyclesTotal)
		write("dropboard_notices_broadcast_total", m.NoticesBroadcastTotal)
		write("dropboard_refresh_errors_total", m.RefreshErrorsTotal)
		write("dropboard_refresh_duration_seconds", m.lastRefreshDuration.Seconds())

		write("dropboard_views_created_total", m.ViewsCreatedTotal)
		write("dropboard_views_evicted_total", m.ViewsEvictedTotal)
		write("dropboard_views_active", m.activeViews)
		write("dropboard_identity_fail_open_total", m.IdentityFailOpens)

		write("dropboard_records_total", m.totalRecords)
		write("dropboard_drops_total", m.totalDrops)
		for shift, count := range m.recordsByShift {
			write("dropboard_records_by_shift", count, "shift", shift)
		}
		for rule, count := range m.alertsByRule {
			write("dropboard_alerts_by_rule", count, "rule", rule)
		}

		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("dropboard_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}
