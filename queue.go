// Package queueadmin exposes the runtime state of job queues to HTTP applications.
//
// Handlers built by this package resolve a queue (and optionally a job) from the
// current request, read its state through the [Queue] and [Job] interfaces and
// hand the serialized result to a store sink before calling the next handler.
package queueadmin

import "context"

// Queue is a read-only handle to a managed queue.
//
// List methods take an inclusive window [start, end] over the jobs in a state.
type Queue interface {
	Name() string
	IsPaused(ctx context.Context) (bool, error)

	ActiveCount(ctx context.Context) (int, error)
	CompletedCount(ctx context.Context) (int, error)
	DelayedCount(ctx context.Context) (int, error)
	FailedCount(ctx context.Context) (int, error)
	WaitingCount(ctx context.Context) (int, error)

	Waiting(ctx context.Context, start, end int) ([]Job, error)
	Active(ctx context.Context, start, end int) ([]Job, error)
	Delayed(ctx context.Context, start, end int) ([]Job, error)
	Completed(ctx context.Context, start, end int) ([]Job, error)
	Failed(ctx context.Context, start, end int) ([]Job, error)

	// Job returns nil and no error when the queue has no job with the given id.
	Job(ctx context.Context, id string) (Job, error)
}

// Job is a read-only handle to a unit of work belonging to a queue.
type Job interface {
	ID() string
	// Info returns the serializable snapshot taken when the handle was loaded.
	Info() *JobInfo
	// State reads the current lifecycle state.
	State(ctx context.Context) (JobState, error)
}

// RequestContext is the view of an HTTP request the handlers work against.
// Framework adapters implement it on top of their own context types.
type RequestContext interface {
	Context() context.Context
	Param(name string) string
	Query(name string) string
	Value(key string) (any, bool)
	SetValue(key string, value any)
}

// stateOps pairs the list and count reads of a single lifecycle state.
type stateOps struct {
	list  func(ctx context.Context, start, end int) ([]Job, error)
	count func(ctx context.Context) (int, error)
}

// stateTable builds the state dispatch table for a queue.
func stateTable(q Queue) map[JobState]stateOps {
	return map[JobState]stateOps{
		StateWaiting:   {list: q.Waiting, count: q.WaitingCount},
		StateActive:    {list: q.Active, count: q.ActiveCount},
		StateDelayed:   {list: q.Delayed, count: q.DelayedCount},
		StateCompleted: {list: q.Completed, count: q.CompletedCount},
		StateFailed:    {list: q.Failed, count: q.FailedCount},
	}
}
