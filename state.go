package queueadmin

import "github.com/hibiken/asynq"

// JobState represents the lifecycle state of a job as exposed to HTTP consumers.
type JobState string

const (
	// StateWaiting represents jobs that are ready and waiting to be processed.
	StateWaiting JobState = "waiting"
	// StateActive represents jobs that are currently being processed.
	StateActive JobState = "active"
	// StateDelayed represents jobs that are scheduled to be run in the future.
	StateDelayed JobState = "delayed"
	// StateCompleted represents jobs that have been completed successfully.
	StateCompleted JobState = "completed"
	// StateFailed represents jobs whose last attempt failed.
	StateFailed JobState = "failed"
)

// JobStates lists every recognized lifecycle state in display order.
var JobStates = []JobState{StateWaiting, StateActive, StateDelayed, StateCompleted, StateFailed}

// IsValidJobState checks if the provided job state is one of the recognized states.
func IsValidJobState(state JobState) bool {
	switch state {
	case StateWaiting, StateActive, StateDelayed, StateCompleted, StateFailed:
		return true
	default:
		return false
	}
}

// ParseJobState converts a raw state label into a JobState.
func ParseJobState(s string) (JobState, error) {
	state := JobState(s)
	if !IsValidJobState(state) {
		return "", ErrInvalidState
	}
	return state, nil
}

// Retry tasks failed their last attempt and are grouped with archived ones.
// Aggregating tasks have not been released to a worker yet, so they read as waiting.
var taskStateToJobStateMap = map[asynq.TaskState]JobState{
	asynq.TaskStateActive:      StateActive,
	asynq.TaskStatePending:     StateWaiting,
	asynq.TaskStateAggregating: StateWaiting,
	asynq.TaskStateScheduled:   StateDelayed,
	asynq.TaskStateRetry:       StateFailed,
	asynq.TaskStateArchived:    StateFailed,
	asynq.TaskStateCompleted:   StateCompleted,
}

// toJobState converts an asynq.TaskState to a JobState.
// It returns the mapped state and true if the mapping exists,
// or an empty JobState and false for unknown task states.
func toJobState(taskState asynq.TaskState) (JobState, bool) {
	jobState, ok := taskStateToJobStateMap[taskState]
	return jobState, ok
}
