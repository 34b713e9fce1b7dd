package enum

// TaskState tracks the lifecycle of a write task.
type TaskState uint8

const (
	_task_state_beg TaskState = iota
	TaskStateCreated
	TaskStateRunning
	TaskStateCompleted
	TaskStateFailed
	TaskStateCancelled
	_task_state_end
)

func (t TaskState) IsAvailable() bool {
	return t > _task_state_beg && t < _task_state_end
}

// IsTerminal reports whether the task can no longer transition.
func (t TaskState) IsTerminal() bool {
	switch t {
	case TaskStateCompleted, TaskStateFailed, TaskStateCancelled:
		return true
	default:
		return false
	}
}

func (t TaskState) String() string {
	switch t {
	case TaskStateCreated:
		return "created"
	case TaskStateRunning:
		return "running"
	case TaskStateCompleted:
		return "completed"
	case TaskStateFailed:
		return "failed"
	case TaskStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
