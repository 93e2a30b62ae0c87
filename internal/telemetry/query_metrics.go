package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/graphquery/internal/schema"
)

// LatencyBucket represents a latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// QueryEvent records one completed resolution at one index.
type QueryEvent struct {
	IndexID     string
	Query       string
	Level       int
	SourceCount int
	Latency     time.Duration
	Timestamp   time.Time
}

// IsZeroResult returns true if this resolution produced no source fragments.
func (e QueryEvent) IsZeroResult() bool {
	return e.SourceCount == 0
}

// DefaultRecentQueries is the LRU capacity for exact-repeat detection.
const DefaultRecentQueries = 512

// DefaultEventBuffer is the capacity of the recent-event ring buffer.
const DefaultEventBuffer = 200

// QueryMetrics implements Hook, recording per-index query telemetry:
// latency distribution, zero-result queries, recursion depth, and
// exact-repeat rate over a recent-query LRU.
type QueryMetrics struct {
	mu sync.RWMutex

	events *CircularBuffer[QueryEvent]
	recent *lru.Cache[string, struct{}]

	totalQueries      int64
	zeroResultCount   int64
	exactRepeats      int64
	maxLevel          int
	latency           map[LatencyBucket]int64
	retrieved         int64
	retrieveStarted   int64
	retrieveCompleted int64
	since             time.Time
}

var _ Hook = (*QueryMetrics)(nil)

// NewQueryMetrics creates a metrics collector. eventCapacity bounds the
// recent-event ring buffer; zero or negative uses DefaultEventBuffer.
func NewQueryMetrics(eventCapacity int) *QueryMetrics {
	if eventCapacity <= 0 {
		eventCapacity = DefaultEventBuffer
	}
	cache, _ := lru.New[string, struct{}](DefaultRecentQueries)
	return &QueryMetrics{
		events:  NewCircularBuffer[QueryEvent](eventCapacity),
		recent:  cache,
		latency: make(map[LatencyBucket]int64),
		since:   time.Now(),
	}
}

// queryKey hashes a query for the repeat-detection LRU so arbitrary query
// text never sits in memory verbatim.
func queryKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return hex.EncodeToString(sum[:8])
}

// OnQueryStart implements Hook.
func (m *QueryMetrics) OnQueryStart(indexID string, query string, level int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if level == 0 {
		m.totalQueries++
		key := queryKey(query)
		if _, seen := m.recent.Get(key); seen {
			m.exactRepeats++
		}
		m.recent.Add(key, struct{}{})
	}
	if level > m.maxLevel {
		m.maxLevel = level
	}
}

// OnQueryEnd implements Hook.
func (m *QueryMetrics) OnQueryEnd(indexID string, query string, level int, resp *schema.Response, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources := 0
	if resp != nil {
		sources = len(resp.Sources)
	}

	event := QueryEvent{
		IndexID:     indexID,
		Query:       query,
		Level:       level,
		SourceCount: sources,
		Latency:     elapsed,
		Timestamp:   time.Now(),
	}
	m.events.Add(event)
	m.latency[LatencyToBucket(elapsed)]++
	if level == 0 && event.IsZeroResult() {
		m.zeroResultCount++
	}
}

// OnRetrieveStart implements Hook. Started and completed counts diverge
// when a retrieval fails: the end event only fires on success, so the gap
// reports failed retrievals without holding per-query state.
func (m *QueryMetrics) OnRetrieveStart(indexID string, query string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrieveStarted++
}

// OnRetrieveEnd implements Hook.
func (m *QueryMetrics) OnRetrieveEnd(indexID string, query string, fragments []schema.ScoredFragment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrieveCompleted++
	m.retrieved += int64(len(fragments))
}

// Snapshot is an immutable view of collected metrics.
type Snapshot struct {
	TotalQueries       int64                   `json:"total_queries"`
	ZeroResultCount    int64                   `json:"zero_result_count"`
	ExactRepeatCount   int64                   `json:"exact_repeat_count"`
	ExactRepeatRate    float64                 `json:"exact_repeat_rate"`
	MaxRecursionLevel  int                     `json:"max_recursion_level"`
	RetrievedFragments int64                   `json:"retrieved_fragments"`
	RetrievalsStarted  int64                   `json:"retrievals_started"`
	RetrievalsFailed   int64                   `json:"retrievals_failed"`
	LatencyHistogram   map[LatencyBucket]int64 `json:"latency_histogram"`
	RecentEvents       []QueryEvent            `json:"recent_events"`
	Since              time.Time               `json:"since"`
}

// ZeroResultPercentage returns the percentage of zero-result root queries.
func (s *Snapshot) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}

// Snapshot returns a copy of the current metrics.
func (m *QueryMetrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hist := make(map[LatencyBucket]int64, len(m.latency))
	for k, v := range m.latency {
		hist[k] = v
	}

	var repeatRate float64
	if m.totalQueries > 0 {
		repeatRate = float64(m.exactRepeats) / float64(m.totalQueries)
	}

	return Snapshot{
		TotalQueries:       m.totalQueries,
		ZeroResultCount:    m.zeroResultCount,
		ExactRepeatCount:   m.exactRepeats,
		ExactRepeatRate:    repeatRate,
		MaxRecursionLevel:  m.maxLevel,
		RetrievedFragments: m.retrieved,
		RetrievalsStarted:  m.retrieveStarted,
		RetrievalsFailed:   m.retrieveStarted - m.retrieveCompleted,
		LatencyHistogram:   hist,
		RecentEvents:       m.events.Items(),
		Since:              m.since,
	}
}
