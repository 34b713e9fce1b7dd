package model

import (
	"time"

	"main/internal/model/enum"
)

// WriteTask identifies one ordered batch of symbols flowing through the
// realtime write pipeline. Runtime state lives in the write service; this
// is the immutable description.
type WriteTask struct {
	TaskID    string
	Symbols   []string
	AssetType enum.AssetType
	DataType  enum.DataType
	StartedAt time.Time
}

// TaskSummary is the terminal accounting for one task.
type TaskSummary struct {
	TaskID       string
	State        enum.TaskState
	SuccessCount int
	FailureCount int
	TotalRecords int
	Duration     time.Duration
	AverageRate  float64
}
