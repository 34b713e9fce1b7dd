package importer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/logs"
	"golang.org/x/sync/errgroup"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/plugin"
	"main/internal/quality"
	"main/internal/router"
	"main/internal/standardize"
	"main/internal/writer"
	"main/pkg/exception"
)

// Config tunes the orchestrator. Fetch concurrency is independent of the
// storage pool size: provider latency dominates write latency, so the
// two are bounded separately.
type Config struct {
	Workers      int
	FetchTimeout time.Duration
	QualityFloor int
	RateLimits   map[string]RateLimit
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 30 * time.Second
	}
	return c
}

// Orchestrator drives a batch of symbols through router, standardization,
// scoring and the write service. Each symbol is an independent unit of
// work: fetched, flushed and released before the next one is buffered.
type Orchestrator struct {
	router   *router.Router
	registry *plugin.Registry
	engine   *standardize.Engine
	scorer   *quality.Scorer
	writer   *writer.Service
	cfg      Config
	metrics  *obs.Metrics

	mu      sync.Mutex
	buckets map[string]*tokenBucket
}

func NewOrchestrator(rt *router.Router, registry *plugin.Registry, engine *standardize.Engine, scorer *quality.Scorer, ws *writer.Service, cfg Config) *Orchestrator {
	return &Orchestrator{
		router:   rt,
		registry: registry,
		engine:   engine,
		scorer:   scorer,
		writer:   ws,
		cfg:      cfg.withDefaults(),
		buckets:  make(map[string]*tokenBucket),
	}
}

// SetMetrics attaches a metrics collector. All observation paths accept
// a nil collector, so this is optional.
func (o *Orchestrator) SetMetrics(m *obs.Metrics) {
	o.metrics = m
}

// Run imports one batch of symbols and returns the task summary. The
// task id is in the summary; subscribe to the event bus before calling
// to observe progress. Per-symbol failures are isolated; Run itself only
// fails on an empty plan or an invalid request.
func (o *Orchestrator) Run(ctx context.Context, req router.Request, symbols []string, dateRange model.DateRange) (model.TaskSummary, error) {
	if len(symbols) == 0 {
		return model.TaskSummary{}, exception.ErrNoSymbols
	}
	if err := dateRange.Validate(); err != nil {
		return model.TaskSummary{}, exception.ErrInvalidDateRange
	}
	plan, err := o.router.Resolve(req)
	if err != nil {
		return model.TaskSummary{}, err
	}

	task := model.WriteTask{
		TaskID:    uuid.NewString(),
		Symbols:   symbols,
		AssetType: req.AssetType,
		DataType:  req.DataType,
		StartedAt: time.Now(),
	}
	if err := o.writer.StartTask(task); err != nil {
		return model.TaskSummary{}, err
	}

	var stopped atomic.Bool
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(o.cfg.Workers)
	for _, symbol := range symbols {
		// Cancellation is cooperative and only honored at symbol
		// boundaries; an in-flight symbol always finishes its write.
		if stopped.Load() || o.writer.Cancelled(task.TaskID) {
			break
		}
		group.Go(func() error {
			if stopped.Load() || o.writer.Cancelled(task.TaskID) {
				return nil
			}
			if failed := o.importSymbol(gctx, task, plan, symbol, dateRange); failed {
				stopped.Store(true)
			}
			return nil
		})
	}
	_ = group.Wait()

	summary, err := o.writer.Complete(task.TaskID)
	if err != nil && summary.State != enum.TaskStateFailed {
		return summary, err
	}
	return summary, nil
}

// importSymbol runs one symbol through the pipeline. It reports whether
// the task transitioned to Failed.
func (o *Orchestrator) importSymbol(ctx context.Context, task model.WriteTask, plan []string, symbol string, dateRange model.DateRange) bool {
	rows, providerID, err := o.fetchWithFallback(ctx, plan, symbol, task.DataType, dateRange)
	if err != nil {
		return o.failSymbol(task.TaskID, symbol, enum.ErrorKindFetch, err)
	}

	records, dropped, err := o.engine.Standardize(providerID, symbol, task.AssetType, task.DataType, rows)
	if err != nil {
		return o.failSymbol(task.TaskID, symbol, enum.ErrorKindStandardize, err)
	}
	o.metrics.AddRecordsDropped(dropped)

	score := o.scorer.Score(records)
	if score.Score < o.cfg.QualityFloor {
		logs.Warnf("importer: %s from %s scored %d, below floor %d", symbol, providerID, score.Score, o.cfg.QualityFloor)
		return o.failSymbol(task.TaskID, symbol, enum.ErrorKindQuality, exception.ErrQualityBelowFloor)
	}
	if !score.Perfect() {
		// Low quality is persisted with its score visible, not silently
		// rejected; the audit trail matters more than a pristine table.
		logs.Infof("importer: %s from %s scored %d (missing=%d range=%d order=%d)",
			symbol, providerID, score.Score, score.MissingFieldCount, score.OutOfRangeCount, score.OutOfOrderCount)
	}

	start := time.Now()
	written, err := o.writer.WriteData(ctx, task.TaskID, symbol, records)
	if err != nil {
		return o.failSymbol(task.TaskID, symbol, enum.ErrorKindStorage, err)
	}
	o.metrics.ObserveWrite(time.Since(start))
	o.metrics.AddRecordsWritten(written)
	o.metrics.IncSymbolImported()
	return false
}

func (o *Orchestrator) failSymbol(taskID, symbol string, kind enum.ErrorKind, cause error) bool {
	o.metrics.IncFailure(kind)
	failed, err := o.writer.FailSymbol(taskID, symbol, kind, cause)
	if err != nil {
		logs.Errorf("importer: record failure for %s: %v", symbol, err)
		return true
	}
	return failed
}

// fetchWithFallback invokes the plan's candidates in order until one
// succeeds, gated by each provider's rate limit. The provider that
// delivered the rows is threaded through to standardization and storage.
func (o *Orchestrator) fetchWithFallback(ctx context.Context, plan []string, symbol string, dataType enum.DataType, dateRange model.DateRange) ([]model.RawRow, string, error) {
	var attempts []exception.ProviderAttempt
	for _, providerID := range plan {
		p, ok := o.registry.Plugin(providerID)
		if !ok {
			attempts = append(attempts, exception.ProviderAttempt{ProviderID: providerID, Err: exception.ErrUnknownProvider})
			continue
		}
		if err := o.bucket(providerID).wait(ctx); err != nil {
			attempts = append(attempts, exception.ProviderAttempt{ProviderID: providerID, Err: err})
			break
		}

		fetchCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
		start := time.Now()
		rows, err := p.Fetch(fetchCtx, symbol, dataType, dateRange)
		cancel()
		o.metrics.ObserveFetch(time.Since(start), err)
		if err != nil {
			logs.Debugf("importer: %s fetch %s failed: %v", providerID, symbol, err)
			attempts = append(attempts, exception.ProviderAttempt{ProviderID: providerID, Err: err})
			continue
		}
		return rows, providerID, nil
	}
	return nil, "", &exception.AllProvidersFailedError{Symbol: symbol, Attempts: attempts}
}

func (o *Orchestrator) bucket(providerID string) *tokenBucket {
	o.mu.Lock()
	defer o.mu.Unlock()
	if b, ok := o.buckets[providerID]; ok {
		return b
	}
	limit, ok := o.cfg.RateLimits[providerID]
	if !ok {
		limit = RateLimit{RPM: 120, Burst: 4}
	}
	b := newTokenBucket(limit)
	o.buckets[providerID] = b
	return b
}
