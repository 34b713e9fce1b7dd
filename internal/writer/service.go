package writer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/storage"
	"main/pkg/exception"
)

// Config tunes task failure policy.
type Config struct {
	// ConsecutiveFailureLimit fails the whole task once this many symbols
	// fail back to back. Zero means never.
	ConsecutiveFailureLimit int
}

// Service is the realtime write pipeline. Each symbol's records are
// flushed to storage as soon as they arrive and then released; the
// service never buffers a task's full result set.
//
// The service holds a non-owning reference to storage units via the
// manager; unit lifecycles stay with the manager.
type Service struct {
	manager *storage.Manager
	events  *bus.Bus
	cfg     Config

	mu    sync.Mutex
	tasks map[string]*taskState
}

type taskState struct {
	task      model.WriteTask
	state     enum.TaskState
	startedAt time.Time

	done         int
	success      int
	failure      int
	totalRecords int
	consecutive  int
	cancelled    bool
}

func NewService(manager *storage.Manager, events *bus.Bus, cfg Config) *Service {
	return &Service{
		manager: manager,
		events:  events,
		cfg:     cfg,
		tasks:   make(map[string]*taskState),
	}
}

// StartTask registers a task and moves it Created -> Running.
func (s *Service) StartTask(task model.WriteTask) error {
	if task.TaskID == "" || len(task.Symbols) == 0 {
		return exception.ErrUnknownTask
	}
	s.mu.Lock()
	if _, ok := s.tasks[task.TaskID]; ok {
		s.mu.Unlock()
		return exception.ErrDuplicateTask
	}
	startedAt := task.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	s.tasks[task.TaskID] = &taskState{
		task:      task,
		state:     enum.TaskStateRunning,
		startedAt: startedAt,
	}
	s.mu.Unlock()

	s.events.Publish(bus.WriteStarted{TaskID: task.TaskID, SymbolCount: len(task.Symbols)})
	logs.Infof("writer: task %s started, %d symbols, %s/%s",
		task.TaskID, len(task.Symbols), task.AssetType, task.DataType)
	return nil
}

// WriteData flushes one symbol's standardized records to storage and
// emits progress. A batch carrying an empty or "unknown" provider id is
// rejected here: silently storing untraceable rows is a correctness
// defect, not a cosmetic one.
func (s *Service) WriteData(ctx context.Context, taskID, symbol string, records []model.CanonicalRecord) (int, error) {
	st, err := s.running(taskID)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, exception.ErrNoRecords
	}
	for _, rec := range records {
		if rec.ProviderID == "" || strings.EqualFold(rec.ProviderID, "unknown") {
			logs.Errorf("writer: task %s symbol %s: record without provider id rejected", taskID, symbol)
			return 0, exception.ErrMissingProviderID
		}
	}

	written, err := s.manager.Write(ctx, st.task.AssetType, st.task.DataType.TableName(), records)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	st.done++
	st.success++
	st.totalRecords += written
	st.consecutive = 0
	progress := s.progressLocked(st, symbol)
	s.mu.Unlock()

	s.events.Publish(progress)
	return written, nil
}

// FailSymbol records one symbol's failure and keeps the task going. It
// returns true when the consecutive-failure limit moved the task to
// Failed, at which point the caller must stop feeding it.
func (s *Service) FailSymbol(taskID, symbol string, kind enum.ErrorKind, cause error) (taskFailed bool, err error) {
	st, err := s.running(taskID)
	if err != nil {
		return false, err
	}

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	s.mu.Lock()
	st.done++
	st.failure++
	st.consecutive++
	consecutive := st.consecutive
	failed := s.cfg.ConsecutiveFailureLimit > 0 && consecutive >= s.cfg.ConsecutiveFailureLimit
	if failed {
		st.state = enum.TaskStateFailed
	}
	s.mu.Unlock()

	s.events.Publish(bus.WriteError{TaskID: taskID, Symbol: symbol, Kind: kind, Message: msg})
	logs.Warnf("writer: task %s symbol %s failed at %s: %v", taskID, symbol, kind, cause)
	if failed {
		logs.Errorf("writer: task %s failed after %d consecutive symbol failures", taskID, consecutive)
	}
	return failed, nil
}

// Cancel sets the cooperative cancellation flag. It is honored between
// symbols, never mid-write, so no symbol is left half-persisted.
func (s *Service) Cancel(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.tasks[taskID]
	if !ok {
		return exception.ErrUnknownTask
	}
	st.cancelled = true
	return nil
}

// Cancelled reports whether cancellation was requested for a task.
func (s *Service) Cancelled(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.tasks[taskID]
	return ok && st.cancelled
}

// Complete drives a running task to its terminal state and emits the
// final summary, counting the failures that were tolerated on the way.
func (s *Service) Complete(taskID string) (model.TaskSummary, error) {
	s.mu.Lock()
	st, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		return model.TaskSummary{}, exception.ErrUnknownTask
	}
	if st.state.IsTerminal() {
		summary := s.summaryLocked(st)
		s.mu.Unlock()
		return summary, exception.ErrTaskTerminal
	}
	if st.cancelled {
		st.state = enum.TaskStateCancelled
	} else {
		st.state = enum.TaskStateCompleted
	}
	summary := s.summaryLocked(st)
	s.mu.Unlock()

	s.events.Publish(bus.WriteCompleted{
		TaskID:       taskID,
		SuccessCount: summary.SuccessCount,
		FailureCount: summary.FailureCount,
		TotalRecords: summary.TotalRecords,
		Duration:     summary.Duration,
		AverageRate:  summary.AverageRate,
	})
	logs.Infof("writer: task %s %s, %d ok, %d failed, %d records in %s",
		taskID, summary.State, summary.SuccessCount, summary.FailureCount,
		summary.TotalRecords, summary.Duration.Round(time.Millisecond))
	return summary, nil
}

// Summary returns the current accounting for a task.
func (s *Service) Summary(taskID string) (model.TaskSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.tasks[taskID]
	if !ok {
		return model.TaskSummary{}, exception.ErrUnknownTask
	}
	return s.summaryLocked(st), nil
}

// State returns a task's lifecycle state.
func (s *Service) State(taskID string) (enum.TaskState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.tasks[taskID]
	if !ok {
		return 0, exception.ErrUnknownTask
	}
	return st.state, nil
}

func (s *Service) running(taskID string) (*taskState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.tasks[taskID]
	if !ok {
		return nil, exception.ErrUnknownTask
	}
	if st.state != enum.TaskStateRunning {
		return nil, exception.ErrTaskNotRunning
	}
	return st, nil
}

func (s *Service) progressLocked(st *taskState, symbol string) bus.WriteProgress {
	total := len(st.task.Symbols)
	elapsed := time.Since(st.startedAt).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(st.totalRecords) / elapsed
	}
	return bus.WriteProgress{
		TaskID:         st.task.TaskID,
		Symbol:         symbol,
		ProgressPct:    100 * float64(st.done) / float64(total),
		WrittenCount:   st.done,
		TotalCount:     total,
		CumulativeRate: rate,
	}
}

func (s *Service) summaryLocked(st *taskState) model.TaskSummary {
	duration := time.Since(st.startedAt)
	rate := 0.0
	if secs := duration.Seconds(); secs > 0 {
		rate = float64(st.totalRecords) / secs
	}
	return model.TaskSummary{
		TaskID:       st.task.TaskID,
		State:        st.state,
		SuccessCount: st.success,
		FailureCount: st.failure,
		TotalRecords: st.totalRecords,
		Duration:     duration,
		AverageRate:  rate,
	}
}
