package queueadmin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceFetcher serves asynq-style pages over n tasks and records each request.
type sliceFetcher struct {
	tasks []*asynq.TaskInfo
	pages [][2]int
	err   error
}

func newSliceFetcher(n int) *sliceFetcher {
	f := &sliceFetcher{}
	for i := range n {
		f.tasks = append(f.tasks, &asynq.TaskInfo{ID: fmt.Sprintf("t%d", i)})
	}
	return f
}

func (f *sliceFetcher) fetch(size, page int) ([]*asynq.TaskInfo, error) {
	f.pages = append(f.pages, [2]int{size, page})
	if f.err != nil {
		return nil, f.err
	}
	lo := min((page-1)*size, len(f.tasks))
	hi := min(lo+size, len(f.tasks))
	return f.tasks[lo:hi], nil
}

func taskIDs(tasks []*asynq.TaskInfo) []string {
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

func TestFetchWindow(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		start, end int
		want       []string
		wantPages  [][2]int
	}{
		{name: "aligned first page", total: 25, start: 0, end: 9, want: []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9"}, wantPages: [][2]int{{10, 1}}},
		{name: "aligned last page", total: 25, start: 20, end: 29, want: []string{"t20", "t21", "t22", "t23", "t24"}, wantPages: [][2]int{{10, 3}}},
		{name: "unaligned spans two pages", total: 25, start: 3, end: 6, want: []string{"t3", "t4", "t5", "t6"}, wantPages: [][2]int{{4, 1}, {4, 2}}},
		{name: "unaligned full first page", total: 5, start: 3, end: 6, want: []string{"t3", "t4"}, wantPages: [][2]int{{4, 1}, {4, 2}}},
		{name: "unaligned short first page", total: 3, start: 2, end: 5, want: []string{"t2"}, wantPages: [][2]int{{4, 1}}},
		{name: "unaligned past end", total: 3, start: 3, end: 6, want: []string{}, wantPages: [][2]int{{4, 1}}},
		{name: "single item", total: 25, start: 12, end: 12, want: []string{"t12"}, wantPages: [][2]int{{1, 13}}},
		{name: "empty window", total: 25, start: 5, end: 4, want: []string{}, wantPages: nil},
		{name: "unbounded from zero", total: 3, start: 0, end: math.MaxInt, want: []string{"t0", "t1", "t2"}, wantPages: [][2]int{{math.MaxInt, 1}}},
		{name: "unbounded with offset", total: 8, start: 5, end: math.MaxInt, want: []string{"t5", "t6", "t7"}, wantPages: [][2]int{{math.MaxInt - 4, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSliceFetcher(tt.total)
			got, err := fetchWindow(tt.start, tt.end, f.fetch)
			require.NoError(t, err)
			assert.Equal(t, tt.want, taskIDs(got))
			assert.Equal(t, tt.wantPages, f.pages)
		})
	}
}

func TestFetchWindowError(t *testing.T) {
	f := newSliceFetcher(10)
	f.err = errors.New("redis down")
	_, err := fetchWindow(0, 4, f.fetch)
	assert.EqualError(t, err, "redis down")
}

func TestIsQueueNotFoundError(t *testing.T) {
	assert.True(t, isQueueNotFoundError(asynq.ErrQueueNotFound))
	assert.True(t, isQueueNotFoundError(fmt.Errorf("wrapped: %w", asynq.ErrQueueNotFound)))
	assert.True(t, isQueueNotFoundError(errors.New(`queue "x" does not exist`)))
	assert.False(t, isQueueNotFoundError(errors.New("connection refused")))
}

func TestToJobState(t *testing.T) {
	tests := []struct {
		in   asynq.TaskState
		want JobState
	}{
		{asynq.TaskStatePending, StateWaiting},
		{asynq.TaskStateAggregating, StateWaiting},
		{asynq.TaskStateActive, StateActive},
		{asynq.TaskStateScheduled, StateDelayed},
		{asynq.TaskStateCompleted, StateCompleted},
		{asynq.TaskStateRetry, StateFailed},
		{asynq.TaskStateArchived, StateFailed},
	}
	for _, tt := range tests {
		got, ok := toJobState(tt.in)
		assert.True(t, ok, tt.in.String())
		assert.Equal(t, tt.want, got, tt.in.String())
	}

	_, ok := toJobState(asynq.TaskState(99))
	assert.False(t, ok)
}

func TestToJobInfo(t *testing.T) {
	now := time.Now()
	ti := &asynq.TaskInfo{
		ID: "t1", Queue: "critical", Type: "email:send",
		Payload: []byte(`{"to":"a@b.c"}`), State: asynq.TaskStateRetry,
		MaxRetry: 5, Retried: 2, LastErr: "smtp timeout",
		LastFailedAt: now, NextProcessAt: now.Add(time.Minute),
		Timeout: time.Minute, Retention: time.Hour,
		Group: "digest", Result: []byte("ok"),
	}
	wi := &asynq.WorkerInfo{Started: now, Deadline: now.Add(time.Hour)}

	info := toJobInfo(ti, wi)
	require.NotNil(t, info)
	assert.Equal(t, "t1", info.ID)
	assert.Equal(t, "email:send", info.Name)
	assert.Equal(t, "critical", info.Queue)
	assert.Equal(t, StateFailed, info.State)
	assert.Equal(t, `{"to":"a@b.c"}`, info.Payload)
	assert.Equal(t, 5, info.MaxRetry)
	assert.Equal(t, 2, info.Retried)
	assert.Equal(t, "smtp timeout", info.LastError)
	assert.Equal(t, time.Minute, info.Timeout)
	assert.Equal(t, time.Hour, info.Retention)
	require.NotNil(t, info.LastFailedAt)
	require.NotNil(t, info.NextProcessAt)
	assert.Nil(t, info.CompletedAt)
	require.NotNil(t, info.Group)
	assert.Equal(t, "digest", *info.Group)
	require.NotNil(t, info.Result)
	assert.Equal(t, "ok", *info.Result)
	require.NotNil(t, info.StartedAt)
	assert.True(t, now.Equal(*info.StartedAt))
	require.NotNil(t, info.DeadlineAt)
}

func TestToJobInfo_NilAndMinimal(t *testing.T) {
	assert.Nil(t, toJobInfo(nil, nil))

	info := toJobInfo(&asynq.TaskInfo{ID: "t2", State: asynq.TaskStatePending}, nil)
	require.NotNil(t, info)
	assert.Equal(t, StateWaiting, info.State)
	assert.Nil(t, info.NextProcessAt)
	assert.Nil(t, info.Group)
	assert.Nil(t, info.Result)
	assert.Nil(t, info.StartedAt)
}

func TestPaginationEnd(t *testing.T) {
	assert.Equal(t, 45, (&Pagination{Start: 12, PageSize: 34}).End())
	assert.Equal(t, 0, (&Pagination{Start: 0, PageSize: 1}).End())
	assert.Equal(t, math.MaxInt, (&Pagination{Start: 5, PageSize: math.MaxInt}).End())
	assert.Equal(t, math.MaxInt, (&Pagination{Start: 1, PageSize: math.MaxInt}).End())
	assert.Equal(t, math.MaxInt-1, (&Pagination{Start: 0, PageSize: math.MaxInt}).End())
}

func TestValidatePagination(t *testing.T) {
	assert.NoError(t, validatePagination(&Pagination{Start: 0, PageSize: 1}))
	assert.ErrorIs(t, validatePagination(nil), ErrPaginationRequired)
	// Start is reported before pageSize when both are out of range.
	assert.EqualError(t, validatePagination(&Pagination{Start: -1, PageSize: 0}),
		"getPagination's start key must be a non-negative number")
}

func TestQueueInfoMemo(t *testing.T) {
	ctx := withQueueInfoMemo(context.Background())
	memo, ok := ctx.Value(queueInfoMemoKey{}).(*queueInfoMemo)
	require.True(t, ok)

	var reads atomic.Int32
	read := func() (*asynq.QueueInfo, error) {
		reads.Add(1)
		return &asynq.QueueInfo{Queue: "critical", Pending: 4}, nil
	}

	var wg sync.WaitGroup
	for range 6 {
		wg.Go(func() {
			qinfo, err := memo.get("critical", read)
			assert.NoError(t, err)
			assert.Equal(t, 4, qinfo.Pending)
		})
	}
	wg.Wait()
	assert.Equal(t, int32(1), reads.Load())

	_, err := memo.get("low", read)
	require.NoError(t, err)
	assert.Equal(t, int32(2), reads.Load(), "each queue is read once")

	fresh, _ := withQueueInfoMemo(context.Background()).Value(queueInfoMemoKey{}).(*queueInfoMemo)
	_, err = fresh.get("critical", read)
	require.NoError(t, err)
	assert.Equal(t, int32(3), reads.Load(), "a new fetch reads again")
}

func TestQueueInfoMemoSharesErrors(t *testing.T) {
	memo, _ := withQueueInfoMemo(context.Background()).Value(queueInfoMemoKey{}).(*queueInfoMemo)
	calls := 0
	read := func() (*asynq.QueueInfo, error) {
		calls++
		return nil, errors.New("redis down")
	}

	_, err := memo.get("critical", read)
	assert.EqualError(t, err, "redis down")
	_, err = memo.get("critical", read)
	assert.EqualError(t, err, "redis down")
	assert.Equal(t, 1, calls)
}
