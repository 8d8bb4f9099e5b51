package queueadmin_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaptinlin/queueadmin"
)

var errBackend = errors.New("backend unavailable")

// fakeRequest is a map-backed queueadmin.RequestContext.
type fakeRequest struct {
	ctx    context.Context
	params map[string]string
	query  map[string]string
	state  map[string]any
}

func newRequest(params, query map[string]string) *fakeRequest {
	return &fakeRequest{
		ctx:    context.Background(),
		params: params,
		query:  query,
		state:  make(map[string]any),
	}
}

func (r *fakeRequest) Context() context.Context { return r.ctx }
func (r *fakeRequest) Param(name string) string { return r.params[name] }
func (r *fakeRequest) Query(name string) string { return r.query[name] }

func (r *fakeRequest) Value(key string) (any, bool) {
	v, ok := r.state[key]
	return v, ok
}

func (r *fakeRequest) SetValue(key string, value any) {
	r.state[key] = value
}

func (r *fakeRequest) envelope(t *testing.T) *queueadmin.Envelope {
	t.Helper()
	v, ok := r.state[queueadmin.DefaultNamespace]
	require.True(t, ok, "envelope was not stored")
	env, ok := v.(*queueadmin.Envelope)
	require.True(t, ok, "unexpected envelope type %T", v)
	return env
}

// nextRecorder counts how often the next handler runs.
type nextRecorder struct {
	calls int
	err   error
}

func (n *nextRecorder) next() error {
	n.calls++
	return n.err
}

type listCall struct {
	state      queueadmin.JobState
	start, end int
}

// recordingQueue wraps a MemoryQueue, records list windows and can fail reads.
type recordingQueue struct {
	*queueadmin.MemoryQueue

	mu        sync.Mutex
	calls     []listCall
	countErr  error
	listErr   error
	countHits int
}

func newRecordingQueue(name string) *recordingQueue {
	return &recordingQueue{MemoryQueue: queueadmin.NewMemoryQueue(name)}
}

func (q *recordingQueue) record(state queueadmin.JobState, start, end int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, listCall{state: state, start: start, end: end})
	return q.listErr
}

func (q *recordingQueue) hitCount() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.countHits++
	return q.countErr
}

func (q *recordingQueue) listCalls() []listCall {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]listCall(nil), q.calls...)
}

func (q *recordingQueue) Waiting(ctx context.Context, start, end int) ([]queueadmin.Job, error) {
	if err := q.record(queueadmin.StateWaiting, start, end); err != nil {
		return nil, err
	}
	return q.MemoryQueue.Waiting(ctx, start, end)
}

func (q *recordingQueue) Active(ctx context.Context, start, end int) ([]queueadmin.Job, error) {
	if err := q.record(queueadmin.StateActive, start, end); err != nil {
		return nil, err
	}
	return q.MemoryQueue.Active(ctx, start, end)
}

func (q *recordingQueue) Delayed(ctx context.Context, start, end int) ([]queueadmin.Job, error) {
	if err := q.record(queueadmin.StateDelayed, start, end); err != nil {
		return nil, err
	}
	return q.MemoryQueue.Delayed(ctx, start, end)
}

func (q *recordingQueue) Completed(ctx context.Context, start, end int) ([]queueadmin.Job, error) {
	if err := q.record(queueadmin.StateCompleted, start, end); err != nil {
		return nil, err
	}
	return q.MemoryQueue.Completed(ctx, start, end)
}

func (q *recordingQueue) Failed(ctx context.Context, start, end int) ([]queueadmin.Job, error) {
	if err := q.record(queueadmin.StateFailed, start, end); err != nil {
		return nil, err
	}
	return q.MemoryQueue.Failed(ctx, start, end)
}

func (q *recordingQueue) FailedCount(ctx context.Context) (int, error) {
	if err := q.hitCount(); err != nil {
		return 0, err
	}
	return q.MemoryQueue.FailedCount(ctx)
}

// seed adds n jobs named job-<state>-<i> to a state.
func seed(t *testing.T, q interface {
	Add(queueadmin.JobState, *queueadmin.JobInfo) error
}, state queueadmin.JobState, n int) {
	t.Helper()
	for i := range n {
		err := q.Add(state, &queueadmin.JobInfo{
			ID:      fmt.Sprintf("job-%s-%d", state, i),
			Name:    "email:send",
			Payload: `{}`,
		})
		require.NoError(t, err)
	}
}

// trackedQueue wraps a MemoryQueue and reports every detail read to enter.
// The function enter returns is called when the read finishes.
type trackedQueue struct {
	*queueadmin.MemoryQueue
	enter func(queue string) (exit func())
}

func (q *trackedQueue) IsPaused(ctx context.Context) (bool, error) {
	defer q.enter(q.Name())()
	return q.MemoryQueue.IsPaused(ctx)
}

func (q *trackedQueue) ActiveCount(ctx context.Context) (int, error) {
	defer q.enter(q.Name())()
	return q.MemoryQueue.ActiveCount(ctx)
}

func (q *trackedQueue) CompletedCount(ctx context.Context) (int, error) {
	defer q.enter(q.Name())()
	return q.MemoryQueue.CompletedCount(ctx)
}

func (q *trackedQueue) DelayedCount(ctx context.Context) (int, error) {
	defer q.enter(q.Name())()
	return q.MemoryQueue.DelayedCount(ctx)
}

func (q *trackedQueue) FailedCount(ctx context.Context) (int, error) {
	defer q.enter(q.Name())()
	return q.MemoryQueue.FailedCount(ctx)
}

func (q *trackedQueue) WaitingCount(ctx context.Context) (int, error) {
	defer q.enter(q.Name())()
	return q.MemoryQueue.WaitingCount(ctx)
}
