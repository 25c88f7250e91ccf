package companionsdk

import (
	"context"
	"log"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// ──────────────────────────────────────────────
// Background Quality Evaluator — async re-scoring pipeline
// ──────────────────────────────────────────────

// EvaluationRequest is what the external evaluator sees for one exchange.
type EvaluationRequest struct {
	UserMessage string      `json:"user_message"`
	AIResponse  string      `json:"ai_response"`
	Energy      EnergyLevel `json:"energy"`
	Mood        Mood        `json:"mood"`
	TurnCount   int         `json:"turn_count"`
	Hour        int         `json:"hour"`
}

// EvaluatorClient calls an external language-model-based scorer with the
// fixed 7-dimension rubric. Implementations must return an error for any
// response that does not parse into a valid HumannessScore.
type EvaluatorClient interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (*HumannessScore, error)
}

// BackgroundEvaluatorConfig controls the background pipeline.
type BackgroundEvaluatorConfig struct {
	Workers   int           // worker goroutines, default 2
	QueueSize int           // buffered channel capacity, default 64
	Timeout   time.Duration // per-request timeout, default 15s
}

// DefaultBackgroundEvaluatorConfig returns production defaults.
func DefaultBackgroundEvaluatorConfig() BackgroundEvaluatorConfig {
	return BackgroundEvaluatorConfig{
		Workers:   2,
		QueueSize: 64,
		Timeout:   15 * time.Second,
	}
}

type evalJob struct {
	request EvaluationRequest
	context ExchangeContext
}

// BackgroundEvaluator re-scores completed exchanges off the turn path.
// Submit never blocks; jobs are dropped when the queue is full. Failures
// are logged and dropped, never retried — the exchange simply stays scored
// by the local scorer only. Completion order across turns is unconstrained.
type BackgroundEvaluator struct {
	client EvaluatorClient
	store  *ExchangeStore
	config BackgroundEvaluatorConfig
	queue  chan evalJob
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool

	submitted atomic.Int64
	dropped   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// NewBackgroundEvaluator creates and starts the pipeline. Call Stop() to
// drain the queue and shut down workers.
func NewBackgroundEvaluator(client EvaluatorClient, store *ExchangeStore, config ...BackgroundEvaluatorConfig) *BackgroundEvaluator {
	cfg := DefaultBackgroundEvaluatorConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &BackgroundEvaluator{
		client: client,
		store:  store,
		config: cfg,
		queue:  make(chan evalJob, cfg.QueueSize),
		cancel: cancel,
	}
	for i := 0; i < cfg.Workers; i++ {
		e.wg.Add(1)
		go e.worker(ctx)
	}
	return e
}

// Submit enqueues an exchange for background re-scoring. Non-blocking;
// returns false if the queue is full and the job was dropped.
func (e *BackgroundEvaluator) Submit(userMessage, aiResponse string, cctx *ConversationContext) bool {
	job := evalJob{
		request: EvaluationRequest{
			UserMessage: userMessage,
			AIResponse:  aiResponse,
		},
	}
	if cctx != nil {
		job.request.Energy = cctx.UserEnergy
		job.request.Mood = cctx.UserMood
		job.request.TurnCount = cctx.MessageCount
		job.request.Hour = cctx.HourOfDay
		job.context = ExchangeContext{
			Energy:    cctx.UserEnergy,
			Mood:      cctx.UserMood,
			TurnCount: cctx.MessageCount,
			Hour:      cctx.HourOfDay,
		}
	}
	// The send must not race Stop's close of the queue
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		e.dropped.Inc()
		log.Printf("[BackgroundEvaluator] Stopped, dropping evaluation job")
		return false
	}
	select {
	case e.queue <- job:
		e.submitted.Inc()
		return true
	default:
		e.dropped.Inc()
		log.Printf("[BackgroundEvaluator] Queue full, dropping evaluation job")
		return false
	}
}

// Pending returns the number of jobs waiting in the queue.
func (e *BackgroundEvaluator) Pending() int {
	return len(e.queue)
}

// Counters returns submitted/dropped/completed/failed totals.
func (e *BackgroundEvaluator) Counters() (submitted, dropped, completed, failed int64) {
	return e.submitted.Load(), e.dropped.Load(), e.completed.Load(), e.failed.Load()
}

// Stop signals workers to drain remaining jobs and exit. Blocks until done.
// Submits after Stop are dropped. Safe to call once.
func (e *BackgroundEvaluator) Stop() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}

func (e *BackgroundEvaluator) worker(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case job, ok := <-e.queue:
			if !ok {
				return
			}
			e.processJob(job)
		case <-ctx.Done():
			for job := range e.queue {
				e.processJob(job)
			}
			return
		}
	}
}

func (e *BackgroundEvaluator) processJob(job evalJob) {
	ctx, cancel := context.WithTimeout(context.Background(), e.config.Timeout)
	defer cancel()

	score, err := e.client.Evaluate(ctx, job.request)
	if err != nil {
		e.failed.Inc()
		log.Printf("[BackgroundEvaluator] Evaluation dropped: %v", err)
		return
	}

	ex := NewScoredExchange(job.request.UserMessage, job.request.AIResponse, nil, score, ScoredByEvaluator)
	ex.Context = job.context
	e.store.Append(ex)
	e.completed.Inc()
}
