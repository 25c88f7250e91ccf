package companionsdk

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────
// Exchange Store & Statistics Aggregator
// ──────────────────────────────────────────────

// ScoredBy identifies which scorer produced a record.
const (
	ScoredByLocal     = "local"
	ScoredByEvaluator = "evaluator"
)

// ExchangeContext is the compact context snapshot stored with an exchange.
type ExchangeContext struct {
	Energy    EnergyLevel `json:"energy"`
	Mood      Mood        `json:"mood"`
	TurnCount int         `json:"turn_count"`
	Hour      int         `json:"hour"`
}

// ScoredExchange is one scored user/AI exchange. Immutable once written;
// evicted only by ring-buffer overflow, oldest first.
type ScoredExchange struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	UserMessage string          `json:"user_message"`
	AIResponse  string          `json:"ai_response"`
	Context     ExchangeContext `json:"context"`
	Score       HumannessScore  `json:"score"`
	ScoredBy    string          `json:"scored_by"` // "local" or "evaluator"
}

// NewScoredExchange builds a record from a completed turn.
func NewScoredExchange(userMessage, aiResponse string, ctx *ConversationContext, score *HumannessScore, scoredBy string) ScoredExchange {
	ex := ScoredExchange{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		UserMessage: userMessage,
		AIResponse:  aiResponse,
		Score:       *score,
		ScoredBy:    scoredBy,
	}
	if ctx != nil {
		ex.Context = ExchangeContext{
			Energy:    ctx.UserEnergy,
			Mood:      ctx.UserMood,
			TurnCount: ctx.MessageCount,
			Hour:      ctx.HourOfDay,
		}
	}
	return ex
}

// ScoreStats is the process-wide rolling aggregate over all scored
// exchanges. Updated on every append, persisted after each mutation.
type ScoreStats struct {
	TotalScored    int            `json:"total_scored"`
	AverageScore   float64        `json:"average_score"`
	IssueCounts    map[string]int `json:"issue_counts"` // truncated to top 20
	LocalCount     int            `json:"local_count"`
	EvaluatorCount int            `json:"evaluator_count"`
	Trend          string         `json:"trend"` // "improving", "declining", "stable"
}

const (
	statsKey        = "score_stats"
	exchangesKey    = "exchanges"
	maxIssueBuckets = 20
	trendWindow     = 50
	trendBand       = 2.0
)

// ExchangeStoreConfig controls capacity and the retraining gate.
type ExchangeStoreConfig struct {
	Capacity         int    // ring buffer size, default 1000
	RetrainThreshold int    // evaluator-scored records needed for readiness, default 500
	Namespace        string // KV namespace, default "companion:exchanges"
}

// DefaultExchangeStoreConfig returns production defaults.
func DefaultExchangeStoreConfig() ExchangeStoreConfig {
	return ExchangeStoreConfig{
		Capacity:         1000,
		RetrainThreshold: 500,
		Namespace:        "companion:exchanges",
	}
}

// ExchangeStore is a bounded FIFO ring buffer of scored exchanges plus the
// rolling ScoreStats. All mutation goes through a single mutex so
// concurrent evaluator completions cannot interleave the stats
// read-modify-write cycle.
type ExchangeStore struct {
	mu        sync.Mutex
	store     KVStore // may be nil: in-memory only
	config    ExchangeStoreConfig
	exchanges []ScoredExchange
	stats     ScoreStats
	recent    []int // scores in append order, for the trend window
	loaded    bool
}

// NewExchangeStore creates a store. Persisted state is loaded lazily on
// first use; read failures fall back to an empty state.
func NewExchangeStore(store KVStore, config ...ExchangeStoreConfig) *ExchangeStore {
	cfg := DefaultExchangeStoreConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1000
	}
	if cfg.RetrainThreshold <= 0 {
		cfg.RetrainThreshold = 500
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "companion:exchanges"
	}
	return &ExchangeStore{
		store:  store,
		config: cfg,
		stats:  ScoreStats{IssueCounts: make(map[string]int), Trend: "stable"},
	}
}

// Append records a scored exchange, evicting the oldest record when the
// buffer is full, and updates ScoreStats. Persistence failures are logged
// and never propagate to the caller.
func (s *ExchangeStore) Append(ex ScoredExchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()

	s.exchanges = append(s.exchanges, ex)
	if len(s.exchanges) > s.config.Capacity {
		s.exchanges = s.exchanges[len(s.exchanges)-s.config.Capacity:]
	}

	// Incremental mean
	s.stats.TotalScored++
	n := float64(s.stats.TotalScored)
	s.stats.AverageScore += (float64(ex.Score.Total) - s.stats.AverageScore) / n

	for _, issue := range ex.Score.Issues {
		s.stats.IssueCounts[issue]++
	}
	truncateIssueCounts(s.stats.IssueCounts, maxIssueBuckets)

	switch ex.ScoredBy {
	case ScoredByEvaluator:
		s.stats.EvaluatorCount++
	default:
		s.stats.LocalCount++
	}

	s.recent = append(s.recent, ex.Score.Total)
	if len(s.recent) > trendWindow {
		s.recent = s.recent[len(s.recent)-trendWindow:]
	}
	s.stats.Trend = computeTrend(s.recent, s.stats.AverageScore)

	s.persistLocked(ex)
}

// Ready reports whether enough evaluator-scored data exists to justify
// retraining the local scorer. This store only reports; it never trains.
func (s *ExchangeStore) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return s.stats.EvaluatorCount >= s.config.RetrainThreshold
}

// Stats returns a copy of the current aggregate statistics.
func (s *ExchangeStore) Stats() ScoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	out := s.stats
	out.IssueCounts = make(map[string]int, len(s.stats.IssueCounts))
	for k, v := range s.stats.IssueCounts {
		out.IssueCounts[k] = v
	}
	return out
}

// Exchanges returns a copy of the stored records, oldest first.
func (s *ExchangeStore) Exchanges() []ScoredExchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	out := make([]ScoredExchange, len(s.exchanges))
	copy(out, s.exchanges)
	return out
}

// Len returns the number of stored exchanges.
func (s *ExchangeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return len(s.exchanges)
}

// TopIssues returns the n most frequent issues, most frequent first.
func (s *ExchangeStore) TopIssues(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	type bucket struct {
		issue string
		count int
	}
	buckets := make([]bucket, 0, len(s.stats.IssueCounts))
	for issue, count := range s.stats.IssueCounts {
		buckets = append(buckets, bucket{issue, count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].issue < buckets[j].issue
	})
	if n > len(buckets) {
		n = len(buckets)
	}
	issues := make([]string, 0, n)
	for _, b := range buckets[:n] {
		issues = append(issues, b.issue)
	}
	return issues
}

// loadLocked lazily restores persisted state. Caller holds the mutex.
func (s *ExchangeStore) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true
	if s.store == nil {
		return
	}

	if raw, err := s.store.Get(s.config.Namespace, statsKey); err == nil && raw != "" {
		var stats ScoreStats
		if json.Unmarshal([]byte(raw), &stats) == nil {
			if stats.IssueCounts == nil {
				stats.IssueCounts = make(map[string]int)
			}
			if stats.Trend == "" {
				stats.Trend = "stable"
			}
			s.stats = stats
		}
	}

	items, err := s.store.GetList(s.config.Namespace, exchangesKey, 0, 0)
	if err != nil {
		log.Printf("[ExchangeStore] Load failed, starting empty: %v", err)
		return
	}
	for _, item := range items {
		var ex ScoredExchange
		if json.Unmarshal([]byte(item), &ex) == nil {
			s.exchanges = append(s.exchanges, ex)
			s.recent = append(s.recent, ex.Score.Total)
		}
	}
	if len(s.exchanges) > s.config.Capacity {
		s.exchanges = s.exchanges[len(s.exchanges)-s.config.Capacity:]
	}
	if len(s.recent) > trendWindow {
		s.recent = s.recent[len(s.recent)-trendWindow:]
	}
}

// persistLocked writes the new exchange and the mutated stats. Write
// failures are logged only; the originating turn never depends on them.
func (s *ExchangeStore) persistLocked(ex ScoredExchange) {
	if s.store == nil {
		return
	}
	if data, err := json.Marshal(ex); err == nil {
		if err := s.store.Append(s.config.Namespace, exchangesKey, string(data)); err != nil {
			log.Printf("[ExchangeStore] Exchange persist failed | id=%s: %v", ex.ID, err)
		}
		if err := s.store.TrimList(s.config.Namespace, exchangesKey, s.config.Capacity); err != nil {
			log.Printf("[ExchangeStore] Trim failed: %v", err)
		}
	}
	if data, err := json.Marshal(s.stats); err == nil {
		if err := s.store.Set(s.config.Namespace, statsKey, string(data)); err != nil {
			log.Printf("[ExchangeStore] Stats persist failed: %v", err)
		}
	}
}

// truncateIssueCounts keeps only the top n buckets by count.
func truncateIssueCounts(counts map[string]int, n int) {
	if len(counts) <= n {
		return
	}
	type bucket struct {
		issue string
		count int
	}
	buckets := make([]bucket, 0, len(counts))
	for issue, count := range counts {
		buckets = append(buckets, bucket{issue, count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].issue < buckets[j].issue
	})
	for _, b := range buckets[n:] {
		delete(counts, b.issue)
	}
}

// computeTrend compares the recent-window mean against the overall mean.
func computeTrend(recent []int, overall float64) string {
	if len(recent) < 10 {
		return "stable"
	}
	sum := 0
	for _, v := range recent {
		sum += v
	}
	recentMean := float64(sum) / float64(len(recent))
	switch {
	case recentMean > overall+trendBand:
		return "improving"
	case recentMean < overall-trendBand:
		return "declining"
	default:
		return "stable"
	}
}
