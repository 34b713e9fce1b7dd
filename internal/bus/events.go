package bus

import (
	"time"

	"main/internal/model/enum"
)

// Event is the closed set of write-lifecycle notifications. Subscribers
// type-switch over the four variants; the core carries no UI types.
type Event interface {
	Task() string
	event()
}

// WriteStarted announces a task entering its running state.
type WriteStarted struct {
	TaskID      string
	SymbolCount int
}

// WriteProgress reports one symbol flushed to storage.
type WriteProgress struct {
	TaskID         string
	Symbol         string
	ProgressPct    float64
	WrittenCount   int
	TotalCount     int
	CumulativeRate float64
}

// WriteError reports one symbol's failure. The task keeps going; partial
// failure is isolated per symbol.
type WriteError struct {
	TaskID  string
	Symbol  string
	Kind    enum.ErrorKind
	Message string
}

// WriteCompleted is the terminal accounting for a task, including the
// failures that were tolerated along the way.
type WriteCompleted struct {
	TaskID       string
	SuccessCount int
	FailureCount int
	TotalRecords int
	Duration     time.Duration
	AverageRate  float64
}

func (e WriteStarted) Task() string   { return e.TaskID }
func (e WriteProgress) Task() string  { return e.TaskID }
func (e WriteError) Task() string     { return e.TaskID }
func (e WriteCompleted) Task() string { return e.TaskID }

func (WriteStarted) event()   {}
func (WriteProgress) event()  {}
func (WriteError) event()     {}
func (WriteCompleted) event() {}
